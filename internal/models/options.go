package models

// Options for the CLI.
type Options struct {
	Debug         bool   `doc:"Enable debug logging" short:"d" default:"false"`
	Host          string `doc:"Hostname to listen on" default:"localhost"`
	Port          int    `doc:"Port to listen on" short:"p" default:"8880"`
	DBHost        string `doc:"Database hostname" default:"localhost"`
	DBPort        int    `doc:"Database port" default:"5432"`
	DBUser        string `doc:"Database username" default:"postgres"`
	DBPassword    string `doc:"Database password" default:"password"`
	DBName        string `doc:"Database name" default:"postgres"`
	AdminKey      string `doc:"Admin API key"`
	ModelBackend  string `doc:"Default generation backend (ollama, openai or gemini)" default:"ollama"`
	ModelEndpoint string `doc:"Endpoint of the default generation backend" default:"http://localhost:11434"`
	ModelName     string `doc:"Model served by the default generation backend" default:"llama3.2"`
	ModelAPIKey   string `doc:"API key for the default generation backend"`
}
