package profile

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server.
type Profile struct {
	// Unified LLM configuration (OpenAI-compatible protocol)
	LLMProvider string // Provider identifier: openai, deepseek, zai, siliconflow, openrouter, ollama
	LLMAPIKey   string
	LLMBaseURL  string // Optional, has a default per provider
	LLMModel    string
	LLMTimeout  int // LLM request timeout in seconds (default: 120)

	// Chat (Slack) configuration
	SlackBotToken string

	// Code host (GitHub) configuration
	GitHubToken string
	GitHubRepo  string // "owner/name"

	// Issue tracker (Jira) configuration
	JiraServer   string
	JiraEmail    string
	JiraAPIToken string

	// Calendar (Google) configuration
	GoogleClientID     string
	GoogleClientSecret string

	// Optional secondary notify channel
	TelegramBotToken string

	// Server configuration
	Mode        string
	Addr        string
	Port        int
	UNIXSock    string
	Data        string // directory for the persisted calendar token
	InstanceURL string
	Version     string
}

// Provider default configurations for the LLM.
// Used when LLM_BASE_URL or LLM_MODEL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-3.5-turbo",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"zai": {
		BaseURL: "https://open.bigmodel.cn/api/paas/v4",
		Model:   "glm-4.7",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "deepseek/deepseek-chat",
	},
	"ollama": {
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsLLMConfigured returns true if an LLM API key is present.
func (p *Profile) IsLLMConfigured() bool {
	return p.LLMAPIKey != ""
}

// IsChatConfigured returns true if the Slack bot token is present.
func (p *Profile) IsChatConfigured() bool {
	return p.SlackBotToken != ""
}

// IsCodeConfigured returns true if both the GitHub token and repo are present.
func (p *Profile) IsCodeConfigured() bool {
	return p.GitHubToken != "" && p.GitHubRepo != ""
}

// IsTrackerConfigured returns true if the full Jira credential triple is present.
func (p *Profile) IsTrackerConfigured() bool {
	return p.JiraServer != "" && p.JiraEmail != "" && p.JiraAPIToken != ""
}

// IsCalendarConfigured returns true if the Google OAuth client pair is present.
func (p *Profile) IsCalendarConfigured() bool {
	return p.GoogleClientID != "" && p.GoogleClientSecret != ""
}

// IsTelegramConfigured returns true if the Telegram bot token is present.
func (p *Profile) IsTelegramConfigured() bool {
	return p.TelegramBotToken != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	// Unified LLM configuration
	p.LLMProvider = getEnvOrDefault("SPRINTLENS_AI_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("SPRINTLENS_AI_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("SPRINTLENS_AI_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("SPRINTLENS_AI_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("SPRINTLENS_AI_LLM_TIMEOUT_SECONDS", 120)

	if p.LLMProvider != "" {
		if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
			slog.Warn("Unknown LLM provider, using default: openai", "provider", p.LLMProvider)
			p.LLMProvider = "openai"
		}
	}
	if p.LLMBaseURL == "" || p.LLMModel == "" {
		if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
			if p.LLMBaseURL == "" {
				p.LLMBaseURL = defaults.BaseURL
			}
			if p.LLMModel == "" {
				p.LLMModel = defaults.Model
			}
		}
	}

	// Integration credentials
	p.SlackBotToken = getEnvOrDefault("SPRINTLENS_SLACK_BOT_TOKEN", "")
	p.GitHubToken = getEnvOrDefault("SPRINTLENS_GITHUB_TOKEN", "")
	p.GitHubRepo = getEnvOrDefault("SPRINTLENS_GITHUB_REPO", "")
	p.JiraServer = getEnvOrDefault("SPRINTLENS_JIRA_SERVER", "")
	p.JiraEmail = getEnvOrDefault("SPRINTLENS_JIRA_EMAIL", "")
	p.JiraAPIToken = getEnvOrDefault("SPRINTLENS_JIRA_API_TOKEN", "")
	p.GoogleClientID = getEnvOrDefault("SPRINTLENS_GOOGLE_CLIENT_ID", "")
	p.GoogleClientSecret = getEnvOrDefault("SPRINTLENS_GOOGLE_CLIENT_SECRET", "")
	p.TelegramBotToken = getEnvOrDefault("SPRINTLENS_TELEGRAM_BOT_TOKEN", "")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.GitHubRepo != "" && !strings.Contains(p.GitHubRepo, "/") {
		return errors.Errorf("github repo must be in owner/name form, got %q", p.GitHubRepo)
	}

	if p.Data == "" {
		p.Data = "."
	}
	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return err
	}
	p.Data = dataDir

	return nil
}
