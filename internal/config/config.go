// Package config loads the service settings from the process environment.
package config

const (
	DefaultServiceName    = "todo"
	DefaultMaxConnections = 5
)

// App holds the HTTP service settings.
type App struct {
	ServiceName string
	ServicePort uint16
}

// Database holds the store settings.
type Database struct {
	URL            string
	MaxConnections uint32
}

// Configuration is the complete set of settings needed to start the service.
type Configuration struct {
	App      App
	Database Database
}

// Load reads the application settings first and the store settings second,
// stopping at the first failure.
func Load() (Configuration, error) {
	app, err := LoadApp()
	if err != nil {
		return Configuration{}, err
	}
	db, err := LoadDatabase()
	if err != nil {
		return Configuration{}, err
	}
	return Configuration{App: app, Database: db}, nil
}

// LoadApp reads APP_SERVICE_NAME and APP_SERVICE_PORT.
func LoadApp() (App, error) {
	name, err := readOptional(ServiceName, DefaultServiceName, parseString)
	if err != nil {
		return App{}, err
	}
	port, err := readRequired(ServicePort, parseUint16)
	if err != nil {
		return App{}, err
	}
	return App{ServiceName: name, ServicePort: port}, nil
}

// LoadDatabase reads APP_DATABASE_URL and APP_DATABASE_MAX_CONNECTIONS.
func LoadDatabase() (Database, error) {
	url, err := readRequired(DatabaseURL, parseString)
	if err != nil {
		return Database{}, err
	}
	maxConns, err := readOptional(DatabaseMaxConnections, uint32(DefaultMaxConnections), parsePoolSize)
	if err != nil {
		return Database{}, err
	}
	return Database{URL: url, MaxConnections: maxConns}, nil
}
