package bindings

import (
	"os"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Config controls how the JVM is located and created. It is read once from
// an optional TOML file; missing file means all defaults.
//
//	jvm_path  = "/usr/lib/jvm/java-21-openjdk/lib/server/libjvm.so"
//	classpath = ["build/classes", "lib/helper.jar"]
//	options   = ["-Xmx256m", "-Xcheck:jni"]
type Config struct {
	JVMPath   string   `toml:"jvm_path"`
	Classpath []string `toml:"classpath"`
	Options   []string `toml:"options"`
}

const configFileName = "jnigo.toml"

var (
	cfgOnce sync.Once
	cfg     Config
	cfgErr  error
)

// LoadedConfig returns the process configuration. The file is looked up via
// the JNIGO_CONFIG environment variable, then the working directory. A
// missing file yields the zero Config; a malformed file is reported by
// ConfigError and otherwise treated as missing.
func LoadedConfig() Config {
	cfgOnce.Do(func() {
		path := os.Getenv("JNIGO_CONFIG")
		if path == "" {
			path = configFileName
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return
		}
		var parsed Config
		if err := toml.Unmarshal(data, &parsed); err != nil {
			cfgErr = err
			return
		}
		cfg = parsed
	})
	return cfg
}

// ConfigError reports a parse failure of the config file, if any.
func ConfigError() error {
	LoadedConfig()
	return cfgErr
}

// SetConfig overrides the process configuration. It must be called before
// the first VM creation to have any effect.
func SetConfig(c Config) {
	cfgOnce.Do(func() {})
	cfg = c
	cfgErr = nil
}
