package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/guabee/multidb/multidb"
	"github.com/guabee/multidb/store"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	BuildName string = ""
)

type DemoConfig struct {
	SubDB     uint64 `json:"subDB"`
	Records   uint64 `json:"records"`
	BatchSize int    `json:"batchSize"`
}

// OptionMap holds loosely typed per-engine settings. Keys match case
// insensitively since viper lowercases keys read from files.
type OptionMap map[string]interface{}

func (o OptionMap) lookup(key string) (interface{}, bool) {
	if v, ok := o[key]; ok {
		return v, true
	}
	for k, v := range o {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func (o OptionMap) GetInt(key string, defaultValue int) (i int) {
	i = defaultValue
	if v, ok := o.lookup(key); ok {
		i = cast.ToInt(v)
	}
	return
}

func (o OptionMap) GetBool(key string, defaultValue bool) (b bool) {
	b = defaultValue
	if v, ok := o.lookup(key); ok {
		b = cast.ToBool(v)
	}
	return
}

type Config struct {
	Engine          string            `json:"engine"`
	Path            string            `json:"path"`
	InMemory        bool              `json:"inMemory"`
	ErrorIfMissing  bool              `json:"errorIfMissing"`
	Sync            bool              `json:"sync"`
	CacheSize       int               `json:"cacheSize"`
	ComparatorName  string            `json:"comparatorName"`
	Comparators     map[string]string `json:"comparators"`
	LogLevel        string            `json:"logLevel"`
	DebugModules    []string          `json:"debugModules"`
	CompactInterval time.Duration     `json:"compactInterval"`
	CompactSubDBs   []string          `json:"compactSubDBs"`
	Demo            DemoConfig        `json:"demo"`
	Version         bool              `json:"version"`

	// Engines tunes one engine at a time: cacheSize, sync, errorIfMissing
	// under the engine's name override the top-level values.
	Engines map[string]OptionMap `json:"engines"`
}

func GetDefaultConfig() Config {
	return Config{
		Engine:         store.LevelDB,
		Path:           "example.db",
		CacheSize:      store.DefaultCacheSize,
		ComparatorName: multidb.DefaultComparatorName,
		LogLevel:       "info",
		Demo: DemoConfig{
			SubDB:     0,
			Records:   1000,
			BatchSize: 100,
		},
	}
}

func flagSetName() string {
	if BuildName != "" {
		return BuildName
	}
	return "multidb"
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(flagSetName(), pflag.ContinueOnError)
	fs.String("engine", "", "storage engine: leveldb or pebble")
	fs.String("path", "", "database directory")
	fs.Bool("inMemory", false, "keep the database in memory")
	fs.Bool("errorIfMissing", false, "fail if the database does not exist")
	fs.Bool("sync", false, "sync every write")
	fs.Int("cacheSize", 0, "engine block cache size in bytes")
	fs.String("comparatorName", "", "persisted comparator identity")
	fs.StringToString("comparators", nil, "sub-database comparators, id=name,...")
	fs.String("logLevel", "", "default log level")
	fs.StringSlice("debugModules", nil, "modules logged at debug level")
	fs.Duration("compactInterval", 0, "run compaction periodically, 0 disables")
	fs.StringSlice("compactSubDBs", nil, "sub-databases to compact, empty means all")
	fs.Uint64("demo.subDB", 0, "demo sub-database id")
	fs.Uint64("demo.records", 0, "demo record count minus one")
	fs.Int("demo.batchSize", 0, "demo batch size")
	fs.String("configFile", "", "use custom config file")
	fs.String("config", "", "use custom config file")
	fs.Bool("version", false, "version info")
	return fs
}

// Parse reads flags from args and an optional JSON config file on top of the
// defaults. Flags win over the file.
func Parse(args []string) (Config, error) {
	config := GetDefaultConfig()
	v := viper.New()
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return config, errors.Wrap(err, "parse flags")
	}

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./conf")

	file, _ := fs.GetString("configFile")
	if file == "" {
		file, _ = fs.GetString("config")
	}
	if file != "" {
		v.SetConfigFile(file)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return config, errors.Wrapf(err, "read config file %q", file)
		}
	}
	if err := v.Unmarshal(&config); err != nil {
		return config, errors.Wrap(err, "decode config")
	}

	// only flags given on the command line override the file
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err == nil {
			err = applyFlag(&config, fs, f.Name)
		}
	})
	return config, err
}

func applyFlag(c *Config, fs *pflag.FlagSet, name string) (err error) {
	switch name {
	case "engine":
		c.Engine, err = fs.GetString(name)
	case "path":
		c.Path, err = fs.GetString(name)
	case "inMemory":
		c.InMemory, err = fs.GetBool(name)
	case "errorIfMissing":
		c.ErrorIfMissing, err = fs.GetBool(name)
	case "sync":
		c.Sync, err = fs.GetBool(name)
	case "cacheSize":
		c.CacheSize, err = fs.GetInt(name)
	case "comparatorName":
		c.ComparatorName, err = fs.GetString(name)
	case "comparators":
		c.Comparators, err = fs.GetStringToString(name)
	case "logLevel":
		c.LogLevel, err = fs.GetString(name)
	case "debugModules":
		c.DebugModules, err = fs.GetStringSlice(name)
	case "compactInterval":
		c.CompactInterval, err = fs.GetDuration(name)
	case "compactSubDBs":
		c.CompactSubDBs, err = fs.GetStringSlice(name)
	case "demo.subDB":
		c.Demo.SubDB, err = fs.GetUint64(name)
	case "demo.records":
		c.Demo.Records, err = fs.GetUint64(name)
	case "demo.batchSize":
		c.Demo.BatchSize, err = fs.GetInt(name)
	case "version":
		c.Version, err = fs.GetBool(name)
	}
	return
}

// ParseConfig parses the process arguments, exiting on error.
func ParseConfig() Config {
	config, err := Parse(os.Args[1:])
	if err != nil {
		fmt.Println("config error:", err)
		os.Exit(2)
	}
	return config
}

// ComparatorTable resolves the configured comparator names.
func (c *Config) ComparatorTable() (multidb.ComparatorTable, error) {
	table := make(multidb.ComparatorTable, len(c.Comparators))
	for key, name := range c.Comparators {
		id, err := cast.ToUint64E(key)
		if err != nil {
			return nil, errors.Wrapf(err, "comparator sub-database id %q", key)
		}
		cmp, err := multidb.ComparatorByName(name)
		if err != nil {
			return nil, err
		}
		table[id] = cmp
	}
	return table, nil
}

// CompactTargets lists the sub-databases to compact; nil means everything.
func (c *Config) CompactTargets() ([]multidb.DBID, error) {
	if len(c.CompactSubDBs) == 0 {
		return nil, nil
	}
	ids := make([]multidb.DBID, 0, len(c.CompactSubDBs))
	for _, s := range c.CompactSubDBs {
		id, err := cast.ToUint64E(s)
		if err != nil {
			return nil, errors.Wrapf(err, "compact sub-database id %q", s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Config) engineOptions() OptionMap {
	engine := c.Engine
	if engine == "" {
		engine = store.LevelDB
	}
	for name, o := range c.Engines {
		if strings.EqualFold(name, engine) {
			return o
		}
	}
	return OptionMap{}
}

func (c *Config) Options() *multidb.Options {
	o := c.engineOptions()
	return &multidb.Options{
		Engine:         c.Engine,
		InMemory:       c.InMemory,
		ErrorIfMissing: o.GetBool("errorIfMissing", c.ErrorIfMissing),
		Sync:           o.GetBool("sync", c.Sync),
		CacheSize:      o.GetInt("cacheSize", c.CacheSize),
		ComparatorName: c.ComparatorName,
	}
}
