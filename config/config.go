// Package config loads ninepd's settings from flags and environment
// variables (flags taking precedence), then from an optional on-disk
// TOML file decoded last, so any field the file sets overrides both;
// grounded on linuxkit-linuxkit and containers-podman's
// pairing of cobra flags with a viper-backed config loader.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envPrefix is prepended to every environment variable config binds,
// e.g. NINEP_MSIZE.
const envPrefix = "NINEP"

// Config holds ninepd's runtime settings.
type Config struct {
	// Root is the directory backend/osfs serves.
	Root string `toml:"root"`

	// MountTag is the virtio-9p mount tag advertised in device config
	// space.
	MountTag string `toml:"mount_tag"`

	// Msize caps the server's negotiated message size before Tversion.
	Msize uint32 `toml:"msize"`

	// LogLevel is a logrus level name ("debug", "info", "warn", "error").
	LogLevel string `toml:"log_level"`

	// BlobStorePath, if non-empty, opens a content-addressed blob store
	// (backend/blobstore.BoltStore) at this bbolt file path, which
	// receives a copy of every buffer written through backend/osfs.
	BlobStorePath string `toml:"blob_store_path"`
}

// Defaults returns the zero-config settings ninepd falls back to when
// no flag, environment variable, or config file sets a value.
func Defaults() Config {
	return Config{
		Root:     ".",
		MountTag: "host9p",
		Msize:    8192,
		LogLevel: "info",
	}
}

// BindFlags registers ninepd's flags on fs and binds them (plus their
// NINEP_-prefixed environment equivalents) into v, following
// linuxkit-linuxkit's cobra+viper wiring pattern.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) {
	d := Defaults()
	fs.String("root", d.Root, "directory to serve")
	fs.String("mount-tag", d.MountTag, "virtio-9p mount tag")
	fs.Uint32("msize", d.Msize, "maximum negotiated message size")
	fs.String("log-level", d.LogLevel, "logrus level (debug, info, warn, error)")
	fs.String("blob-store", "", "bbolt file path for a content-addressed copy of written data (optional)")
	fs.String("config", "", "path to a TOML config file (optional)")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	_ = v.BindPFlag("root", fs.Lookup("root"))
	_ = v.BindPFlag("mount_tag", fs.Lookup("mount-tag"))
	_ = v.BindPFlag("msize", fs.Lookup("msize"))
	_ = v.BindPFlag("log_level", fs.Lookup("log-level"))
	_ = v.BindPFlag("blob_store_path", fs.Lookup("blob-store"))
	_ = v.BindPFlag("config", fs.Lookup("config"))
}

// Load resolves the final Config from v (flags + environment), then
// layers an optional TOML file named by v's "config" key on top of
// viper's own values for any field the file sets explicitly — matching
// containers-podman's pattern of a dedicated TOML decode pass rather
// than relying on viper's own (more permissive) file support.
func Load(v *viper.Viper) (Config, error) {
	cfg := Defaults()
	cfg.Root = v.GetString("root")
	cfg.MountTag = v.GetString("mount_tag")
	if m := v.GetUint32("msize"); m != 0 {
		cfg.Msize = m
	}
	if l := v.GetString("log_level"); l != "" {
		cfg.LogLevel = l
	}
	cfg.BlobStorePath = v.GetString("blob_store_path")

	if path := v.GetString("config"); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decoding %s: %w", path, err)
		}
	}
	return cfg, nil
}
