package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/showtimes-cli/internal/navigate"
	"github.com/sells-group/showtimes-cli/internal/scroll"
)

// Config holds the full application configuration.
type Config struct {
	Catalog    CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	Output     OutputConfig    `yaml:"output" mapstructure:"output"`
	Sites      SitesConfig     `yaml:"sites" mapstructure:"sites"`
	Store      StoreConfig     `yaml:"store" mapstructure:"store"`
	Browser    BrowserConfig   `yaml:"browser" mapstructure:"browser"`
	Navigation navigate.Config `yaml:"navigation" mapstructure:"navigation"`
	Scroll     scroll.Config   `yaml:"scroll" mapstructure:"scroll"`
	Resolve    ResolveConfig   `yaml:"resolve" mapstructure:"resolve"`
	Log        LogConfig       `yaml:"log" mapstructure:"log"`
}

// CatalogConfig locates the cinema and movie catalog workbooks.
type CatalogConfig struct {
	CinemasPath string `yaml:"cinemas_path" mapstructure:"cinemas_path"`
	MoviesPath  string `yaml:"movies_path" mapstructure:"movies_path"`
}

// OutputConfig configures where run outputs are written.
type OutputConfig struct {
	Dir               string `yaml:"dir" mapstructure:"dir"`
	UnknownMoviesFile string `yaml:"unknown_movies_file" mapstructure:"unknown_movies_file"`
}

// SitesConfig points at an optional YAML file of extra or overriding sites.
type SitesConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// StoreConfig configures the run ledger.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // sqlite or memory
	Path   string `yaml:"path" mapstructure:"path"`
}

// BrowserConfig configures the live Chrome session.
type BrowserConfig struct {
	RemoteURL    string `yaml:"remote_url" mapstructure:"remote_url"`
	Headless     bool   `yaml:"headless" mapstructure:"headless"`
	Stealth      bool   `yaml:"stealth" mapstructure:"stealth"`
	WindowWidth  int    `yaml:"window_width" mapstructure:"window_width"`
	WindowHeight int    `yaml:"window_height" mapstructure:"window_height"`
}

// ResolveConfig configures movie title matching.
type ResolveConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// UnknownMoviesPath is the movies-to-add report inside the output dir.
func (c *Config) UnknownMoviesPath() string {
	return filepath.Join(c.Output.Dir, c.Output.UnknownMoviesFile)
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SHOWTIMES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("catalog.cinemas_path", "databases/cinemas.xlsx")
	v.SetDefault("catalog.movies_path", "databases/movies.xlsx")
	v.SetDefault("output.dir", "output")
	v.SetDefault("output.unknown_movies_file", "movies_to_add.txt")
	v.SetDefault("sites.file", "")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "output/runs.db")
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.stealth", true)
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("resolve.similarity_threshold", 0.85)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	setNavigationDefaults(v, navigate.DefaultConfig())
	setScrollDefaults(v, scroll.DefaultConfig())

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setNavigationDefaults(v *viper.Viper, d navigate.Config) {
	t := d.Timings
	v.SetDefault("navigation.page_timeout", t.PageTimeout)
	v.SetDefault("navigation.settle_delay", t.SettleDelay)
	v.SetDefault("navigation.click_settle", t.ClickSettle)
	v.SetDefault("navigation.consent_wait", t.ConsentWait)
	v.SetDefault("navigation.click_timeout", t.ClickTimeout)
	v.SetDefault("navigation.card_wait", t.CardWait)
	v.SetDefault("navigation.card_pause", t.CardPause)
	v.SetDefault("navigation.announcement_wait", t.AnnouncementWait)
	v.SetDefault("navigation.announcement_pause", t.AnnouncementPause)
	v.SetDefault("navigation.menu_wait", t.MenuWait)
	v.SetDefault("navigation.hover_delay", t.HoverDelay)
	v.SetDefault("navigation.venue_settle", t.VenueSettle)
	v.SetDefault("navigation.detail_wait", t.DetailWait)
	v.SetDefault("navigation.tab_wait", t.TabWait)
	v.SetDefault("navigation.back_settle", t.BackSettle)
	v.SetDefault("navigation.retry_delay", t.RetryDelay)
	v.SetDefault("navigation.title_retry_delay", t.TitleRetryDelay)

	a := d.Attempts
	v.SetDefault("navigation.attempts.cinema_link", a.CinemaLink)
	v.SetDefault("navigation.attempts.secondary_link", a.SecondaryLink)
	v.SetDefault("navigation.attempts.date_slider", a.DateSlider)
	v.SetDefault("navigation.attempts.card_wait", a.CardWait)
	v.SetDefault("navigation.attempts.announcement", a.Announcement)
	v.SetDefault("navigation.attempts.card_title", a.CardTitle)
	v.SetDefault("navigation.quick_rescrape", d.QuickRescrape)
}

func setScrollDefaults(v *viper.Viper, d scroll.Config) {
	v.SetDefault("scroll.steps_per_batch", d.StepsPerBatch)
	v.SetDefault("scroll.max_attempts", d.MaxAttempts)
	v.SetDefault("scroll.max_batches", d.MaxBatches)
	v.SetDefault("scroll.step_min", d.StepMin)
	v.SetDefault("scroll.step_max", d.StepMax)
	v.SetDefault("scroll.reverse_step_max", d.ReverseStepMax)
	v.SetDefault("scroll.step_delay_min", d.StepDelayMin)
	v.SetDefault("scroll.step_delay_max", d.StepDelayMax)
	v.SetDefault("scroll.batch_pause", d.BatchPause)
	v.SetDefault("scroll.reverse_pause", d.ReversePause)
	v.SetDefault("scroll.settle_delay", d.SettleDelay)
	v.SetDefault("scroll.top_settle", d.TopSettle)
}

// Validate checks the settings a run depends on and reports every problem
// at once.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Catalog.CinemasPath == "" {
		add("catalog.cinemas_path is required")
	}
	if c.Catalog.MoviesPath == "" {
		add("catalog.movies_path is required")
	}
	if c.Output.Dir == "" {
		add("output.dir is required")
	}
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			add("store.path is required for the sqlite driver")
		}
	case "memory":
	default:
		add("store.driver must be sqlite or memory, got %q", c.Store.Driver)
	}

	t := c.Navigation.Timings
	for name, d := range map[string]int64{
		"navigation.page_timeout":  int64(t.PageTimeout),
		"navigation.consent_wait":  int64(t.ConsentWait),
		"navigation.click_timeout": int64(t.ClickTimeout),
		"navigation.card_wait":     int64(t.CardWait),
		"navigation.detail_wait":   int64(t.DetailWait),
		"navigation.tab_wait":      int64(t.TabWait),
	} {
		if d <= 0 {
			add("%s must be > 0", name)
		}
	}

	s := c.Scroll
	if s.StepsPerBatch < 1 {
		add("scroll.steps_per_batch must be >= 1")
	}
	if s.MaxAttempts < 1 {
		add("scroll.max_attempts must be >= 1")
	}
	if s.StepMin <= 0 || s.StepMin > s.StepMax || s.StepMax > 1 {
		add("scroll.step_min/step_max must satisfy 0 < min <= max <= 1")
	}
	if s.StepDelayMin > s.StepDelayMax {
		add("scroll.step_delay_min must not exceed scroll.step_delay_max")
	}

	if th := c.Resolve.SimilarityThreshold; th <= 0 || th > 1 {
		add("resolve.similarity_threshold must be in (0, 1]")
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
