package config

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Public Public
}

type Public struct {
	Server  Server  `yaml:"server" validate:"required"`
	Storage Storage `yaml:"storage" validate:"required"`
	Limits  Limits  `yaml:"limits" validate:"required"`
	Log     Log     `yaml:"log"`
	MediaGC MediaGC `yaml:"media_gc"`
	// markdown document served by /v1/about, optional
	AboutFile string `yaml:"about_file"`
}

type Server struct {
	Port           int      `yaml:"port" validate:"required,min=1,max=65535"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	SecureCookies  bool     `yaml:"secure"` // enables HSTS
	// posts per second per client ip, 0 disables limiting
	PostRate  float64 `yaml:"post_rate" validate:"gte=0"`
	PostBurst int     `yaml:"post_burst" validate:"gte=0"`
}

type Storage struct {
	DataFile   string `yaml:"data_file" validate:"required"`
	UploadsDir string `yaml:"uploads_dir" validate:"required"`
	// spooled uploads; keep on the same volume as UploadsDir so moves are renames
	TempDir string `yaml:"temp_dir"`
}

type Limits struct {
	MaxAttachmentSizeBytes   int64 `yaml:"max_attachment_size_bytes" validate:"required,gt=0"`
	MaxAttachmentsPerMessage int   `yaml:"max_attachments_per_message" validate:"required,gt=0"`
	MaxTotalAttachmentSize   int64 `yaml:"max_total_attachment_size" validate:"required,gtefield=MaxAttachmentSizeBytes"`
	MaxTextLength            int   `yaml:"max_text_length" validate:"gte=0"`
	DefaultPageLimit         int   `yaml:"default_page_limit" validate:"gte=0"`
	MaxPageLimit             int   `yaml:"max_page_limit" validate:"gte=0"`
}

type Log struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	JSON  bool   `yaml:"json"`
}

type MediaGC struct {
	Interval        time.Duration `yaml:"interval"`
	SafetyThreshold time.Duration `yaml:"safety_threshold"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}

	if err = yaml.UnmarshalStrict(configFile, output); err != nil {
		panic(fmt.Sprintf("can't unmarshal config file: %v", err))
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	public.applyEnvOverrides()
	public.setDefaults()

	if err := validate.Struct(public); err != nil {
		panic(fmt.Sprintf("invalid config: %v", err))
	}

	return &Config{Public: public}
}

func (p *Public) applyEnvOverrides() {
	if v := os.Getenv("MSGBOARD_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			p.Server.Port = port
		}
	}
	if v := os.Getenv("MSGBOARD_DATA_FILE"); v != "" {
		p.Storage.DataFile = v
	}
	if v := os.Getenv("MSGBOARD_UPLOADS_DIR"); v != "" {
		p.Storage.UploadsDir = v
	}
}

func (p *Public) setDefaults() {
	if p.Storage.TempDir == "" && p.Storage.UploadsDir != "" {
		p.Storage.TempDir = path.Join(path.Dir(path.Clean(p.Storage.UploadsDir)), "tmp")
	}
	if p.Limits.MaxTextLength == 0 {
		p.Limits.MaxTextLength = 10000
	}
	if p.Limits.DefaultPageLimit == 0 {
		p.Limits.DefaultPageLimit = 20
	}
	if p.Limits.MaxPageLimit == 0 {
		p.Limits.MaxPageLimit = 100
	}
	if p.Log.Level == "" {
		p.Log.Level = "info"
	}
	if p.MediaGC.Interval == 0 {
		p.MediaGC.Interval = time.Hour
	}
	if p.MediaGC.SafetyThreshold == 0 {
		p.MediaGC.SafetyThreshold = 24 * time.Hour
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Public.Server.Port)
}
