package constants

const (
	AppDashboard    = "product-dashboard"
	AppProductProxy = "product-proxy"
	AppUserService  = "user-service"
	AppCatalog      = "catalog"
	AppMain         = "dashboard"

	AudienceDashboard = "audience-dashboard"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)
