package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hectorgimenez/afkbot/internal/utils"
	"github.com/joho/godotenv"
	cp "github.com/otiai10/copy"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath     = "config/afk.yaml"
	TemplateDir     = "config/template"
	templateCfgFile = "afk.yaml"

	BackendDesktop = "desktop"
	BackendBrowser = "browser"
)

var Version = "dev"

// CaptureRegion is a screen rectangle, in absolute display pixels.
type CaptureRegion struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type Cfg struct {
	Area             Region         `yaml:"area"`
	Mode             Profile        `yaml:"mode"`
	RunTime          int            `yaml:"runTime"`          // Minutes, 0 means no limit
	Recovery         bool           `yaml:"recovery"`         // Run the recovery procedure on abnormal states
	CheckInterval    float64        `yaml:"checkInterval"`    // Seconds between health checks
	MovementInterval [2]float64     `yaml:"movementInterval"` // Seconds, [min, max] between movement patterns
	ScreenRegion     *CaptureRegion `yaml:"screenRegion"`     // nil means full screen
	Debug            struct {
		Enabled   bool   `yaml:"enabled"`
		Log       bool   `yaml:"log"`
		Directory string `yaml:"directory"`
	} `yaml:"debug"`
	LogSaveDirectory string `yaml:"logSaveDirectory"`
	Backend          struct {
		Kind     string `yaml:"kind"` // desktop or browser
		GameURL  string `yaml:"gameUrl"`
		Headless bool   `yaml:"headless"`
		Width    int    `yaml:"width"`
		Height   int    `yaml:"height"`
		Bin      string `yaml:"bin"`
	} `yaml:"backend"`
	Server struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"server"`
	Discord struct {
		Enabled    bool     `yaml:"enabled"`
		Token      string   `yaml:"token"`
		ChannelID  string   `yaml:"channelId"`
		UseWebhook bool     `yaml:"useWebhook"`
		WebhookURL string   `yaml:"webhookUrl"`
		BotAdmins  []string `yaml:"botAdmins"`
	} `yaml:"discord"`
	Telegram struct {
		Enabled bool   `yaml:"enabled"`
		ChatID  int64  `yaml:"chatId"`
		Token   string `yaml:"token"`
	} `yaml:"telegram"`
	Ngrok struct {
		Enabled       bool   `yaml:"enabled"`
		SendURL       bool   `yaml:"sendUrl"`
		Authtoken     string `yaml:"authtoken"`
		Region        string `yaml:"region"`
		Domain        string `yaml:"domain"`
		BasicAuthUser string `yaml:"basicAuthUser"`
		BasicAuthPass string `yaml:"basicAuthPass"`
	} `yaml:"ngrok"`
}

// Default returns the configuration used when no file exists yet.
func Default() *Cfg {
	cfg := &Cfg{
		Area:             RegionSewers,
		Mode:             ProfileNormal,
		RunTime:          0,
		Recovery:         true,
		CheckInterval:    5.0,
		MovementInterval: [2]float64{2.0, 5.0},
		LogSaveDirectory: "logs",
	}
	cfg.Debug.Directory = "debug"
	cfg.Backend.Kind = BackendDesktop
	cfg.Backend.GameURL = "https://florr.io"
	cfg.Backend.Width = 1280
	cfg.Backend.Height = 800
	cfg.Server.Port = 8087

	return cfg
}

// Init makes sure a config file exists at path. It copies the template folder config when available,
// otherwise it writes the defaults.
func Init(path string) (created bool, err error) {
	if _, err = os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("error checking config file %s: %w", path, err)
	}

	if err = os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("error creating config directory: %w", err)
	}

	template := filepath.Join(TemplateDir, templateCfgFile)
	if _, statErr := os.Stat(template); statErr == nil {
		if err = cp.Copy(template, path); err != nil {
			return false, fmt.Errorf("error copying template: %w", err)
		}
		return true, nil
	}

	return true, Save(path, Default())
}

// Load reads the YAML config at path on top of the defaults, applies environment overrides and validates it.
func Load(path string) (*Cfg, error) {
	cfg := Default()

	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error loading %s: %w", path, err)
	}
	defer r.Close()

	d := yaml.NewDecoder(r)
	if err = d.Decode(cfg); err != nil {
		return nil, fmt.Errorf("error reading config %s: %w", path, err)
	}

	applyEnv(cfg)
	cfg.Validate()
	sanitizeDiscordConfig(cfg)

	return cfg, nil
}

func Save(path string, cfg *Cfg) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	text, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error parsing config: %w", err)
	}
	if err = os.WriteFile(path, text, 0644); err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}

	return nil
}

// LoadEnv loads secrets from dotenv files into the process environment. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}

	return godotenv.Load(existing...)
}

func applyEnv(cfg *Cfg) {
	if v := os.Getenv("AFK_TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("AFK_TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}
	if v := os.Getenv("AFK_DISCORD_TOKEN"); v != "" {
		cfg.Discord.Token = v
	}
	if v := os.Getenv("AFK_DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Discord.WebhookURL = v
	}
	if v := os.Getenv("NGROK_AUTHTOKEN"); v != "" && cfg.Ngrok.Authtoken == "" {
		cfg.Ngrok.Authtoken = v
	}
}

// Validate normalizes enum values and fixes intervals that would stall the loops.
func (c *Cfg) Validate() {
	c.Area = NormalizeRegion(string(c.Area))
	c.Mode = NormalizeProfile(string(c.Mode))

	if c.RunTime < 0 {
		c.RunTime = 0
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 5.0
	}

	lo, hi := c.MovementInterval[0], c.MovementInterval[1]
	if lo < 0 {
		lo = 0
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	if hi <= 0 {
		lo, hi = 2.0, 5.0
	}
	c.MovementInterval = [2]float64{lo, hi}

	if c.ScreenRegion != nil && (c.ScreenRegion.Width <= 0 || c.ScreenRegion.Height <= 0) {
		c.ScreenRegion = nil
	}

	c.Backend.Kind = strings.ToLower(strings.TrimSpace(c.Backend.Kind))
	if c.Backend.Kind != BackendBrowser {
		c.Backend.Kind = BackendDesktop
	}
	if c.Backend.Width <= 0 {
		c.Backend.Width = 1280
	}
	if c.Backend.Height <= 0 {
		c.Backend.Height = 800
	}
	if c.Server.Port <= 0 {
		c.Server.Port = 8087
	}
	if c.Debug.Directory == "" {
		c.Debug.Directory = "debug"
	}
}

func sanitizeDiscordConfig(cfg *Cfg) {
	if !cfg.Discord.Enabled {
		return
	}
	webhookURL := strings.TrimSpace(cfg.Discord.WebhookURL)
	token := strings.TrimSpace(cfg.Discord.Token)
	channelID := strings.TrimSpace(cfg.Discord.ChannelID)

	if (cfg.Discord.UseWebhook && webhookURL == "") || (!cfg.Discord.UseWebhook && (token == "" || channelID == "")) {
		cfg.Discord.Enabled = false
	}
}

// RunLimit returns the configured run time limit, 0 means unbounded.
func (c *Cfg) RunLimit() time.Duration {
	return time.Duration(c.RunTime) * time.Minute
}

func (c *Cfg) HealthCheckInterval() time.Duration {
	return utils.Seconds(c.CheckInterval)
}

func (c *Cfg) MovementRange() (time.Duration, time.Duration) {
	return utils.Seconds(c.MovementInterval[0]), utils.Seconds(c.MovementInterval[1])
}
