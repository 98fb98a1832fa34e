// internal/config/config.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type AdzunaCategory struct {
	Title    string `yaml:"title" json:"title"`       // search phrase sent to the API
	Category string `yaml:"category" json:"category"` // profile/category it feeds
}

type Board struct {
	Slug     string `yaml:"slug" json:"slug"` // boards.greenhouse.io/<slug>
	Name     string `yaml:"name" json:"name"`
	Category string `yaml:"category" json:"category"`
}

type Config struct {
	App struct {
		Port    int    `yaml:"port" json:"port"`
		DataDir string `yaml:"data_dir" json:"data_dir"`
	} `yaml:"app" json:"app"`

	Pipeline struct {
		Horizon         int     `yaml:"horizon" json:"horizon"`
		MinObservations int     `yaml:"min_observations" json:"min_observations"`
		SeasonLength    int     `yaml:"season_length" json:"season_length"`
		Interval        float64 `yaml:"interval" json:"interval"`
		Workers         int     `yaml:"workers" json:"workers"`
		DeadlineSeconds int     `yaml:"deadline_seconds" json:"deadline_seconds"`
	} `yaml:"pipeline" json:"pipeline"`

	Polling struct {
		CollectSeconds int `yaml:"collect_seconds" json:"collect_seconds"`
		RunSeconds     int `yaml:"run_seconds" json:"run_seconds"`
		RetentionDays  int `yaml:"retention_days" json:"retention_days"`
	} `yaml:"polling" json:"polling"`

	Ingest struct {
		DemandCSV string `yaml:"demand_csv" json:"demand_csv"`
		RiskCSV   string `yaml:"risk_csv" json:"risk_csv"`
	} `yaml:"ingest" json:"ingest"`

	Sources struct {
		Adzuna struct {
			Enabled    bool             `yaml:"enabled" json:"enabled"`
			Country    string           `yaml:"country" json:"country"`
			AppID      string           `yaml:"app_id" json:"app_id"` // the key itself lives in the keyring
			Categories []AdzunaCategory `yaml:"categories" json:"categories"`
		} `yaml:"adzuna" json:"adzuna"`

		Boards struct {
			Enabled bool    `yaml:"enabled" json:"enabled"`
			Boards  []Board `yaml:"boards" json:"boards"`
		} `yaml:"boards" json:"boards"`
	} `yaml:"sources" json:"sources"`

	Email struct {
		Enabled          bool     `yaml:"enabled" json:"enabled"`
		IMAPHost         string   `yaml:"imap_host" json:"imap_host"`
		IMAPPort         int      `yaml:"imap_port" json:"imap_port"`
		Username         string   `yaml:"username" json:"username"`
		Mailbox          string   `yaml:"mailbox" json:"mailbox"`
		LookbackDays     int      `yaml:"lookback_days" json:"lookback_days"`
		SearchSubjectAny []string `yaml:"search_subject_any" json:"search_subject_any"`
	} `yaml:"email" json:"email"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
