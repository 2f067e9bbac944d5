package config

// Variable names one of the environment settings the service understands.
type Variable int

const (
	ServiceName Variable = iota
	ServicePort
	DatabaseURL
	DatabaseMaxConnections
)

// Key returns the environment variable name backing v.
func (v Variable) Key() string {
	switch v {
	case ServiceName:
		return "APP_SERVICE_NAME"
	case ServicePort:
		return "APP_SERVICE_PORT"
	case DatabaseURL:
		return "APP_DATABASE_URL"
	case DatabaseMaxConnections:
		return "APP_DATABASE_MAX_CONNECTIONS"
	}
	return ""
}

func (v Variable) String() string {
	return v.Key()
}
