package buildinfo

const Graffiti = " _____ _________________   __ _\n/  ___|_   _| ___ \\ ____\\ \\ / /| |\n\\ `--.  | | | |_/ / |__  \\ V / | |\n `--. \\ | | | ___ \\  __|  \\ /  | |\n/\\__/ /_| |_| |_/ / |____ | |  | |____\n\\____/ \\___/\\____/\\______/\\_/  \\_____/\n\n"

var (
	BuildTag string = "v0.0.0"
	Name     string = "SIBYL"
	Time     string = ""
)

type buildinfo struct{}

func (buildinfo) Tag() string {
	return BuildTag
}

func (buildinfo) Name() string {
	return Name
}

func (buildinfo) Time() string {
	return Time
}

var Info buildinfo
