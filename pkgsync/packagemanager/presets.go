package packagemanager

// presets hold invocation defaults for well known managers. Fields left
// empty fall back to the generic defaults.
var presets = map[string]Config{
	"apt": {
		Executable:    "apt-get",
		InstallVerb:   "install -y",
		UninstallVerb: "remove -y",
	},
	"dnf": {
		InstallVerb:   "install -y",
		UninstallVerb: "remove -y",
	},
	"yum": {
		InstallVerb:   "install -y",
		UninstallVerb: "remove -y",
	},
	"apk": {
		InstallVerb:   "add",
		UninstallVerb: "del",
	},
	"brew": {
		UninstallVerb: "uninstall",
		NoSudo:        true,
	},
	"pip": {
		UninstallVerb: "uninstall -y",
	},
	"npm": {
		InstallVerb:   "install -g",
		UninstallVerb: "uninstall -g",
	},
	"gem": {
		UninstallVerb: "uninstall",
	},
	"ruby": {
		Executable:    "gem",
		UninstallVerb: "uninstall",
	},
}

// Preset returns the built-in config for key, with Key set.
func Preset(key string) (Config, bool) {
	p, ok := presets[key]
	p.Key = key
	return p, ok
}
