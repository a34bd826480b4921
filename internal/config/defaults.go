package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/counsellor/data/counsellor.db"
	}
	if cfg.Upstream.TimeoutSeconds == 0 {
		cfg.Upstream.TimeoutSeconds = 10
	}
	if cfg.Provider.Name == "" {
		cfg.Provider.Name = "gemini"
	}
	if cfg.Provider.ChatModel == "" {
		switch cfg.Provider.Name {
		case "openai":
			cfg.Provider.ChatModel = "gpt-4o-mini"
		default:
			cfg.Provider.ChatModel = "gemini-1.5-flash"
		}
	}
	if cfg.Provider.EmbedModel == "" {
		switch cfg.Provider.Name {
		case "openai":
			cfg.Provider.EmbedModel = "text-embedding-3-small"
		default:
			cfg.Provider.EmbedModel = "text-embedding-004"
		}
	}
	if cfg.Provider.Dimensions == 0 {
		cfg.Provider.Dimensions = 768
	}
	if cfg.Provider.EmbedCacheSize == 0 {
		cfg.Provider.EmbedCacheSize = 1000
	}
	if cfg.Session.DurationSeconds == 0 {
		cfg.Session.DurationSeconds = 900
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.IndexCacheSize == 0 {
		cfg.Retrieval.IndexCacheSize = 256
	}
}
