package build

import "fmt"

var (
	// Version додатку (встановлюється через ldflags)
	Version = "dev"

	// GitCommit хеш коміту (встановлюється через ldflags)
	GitCommit = "unknown"

	// BuildTime час збірки (встановлюється через ldflags)
	BuildTime = "unknown"
)

// Name - ім'я сервісу у логах, health та User-Agent
const Name = "cad-auth"

// Info повертає інформацію про білд
func Info() map[string]string {
	return map[string]string{
		"service":    Name,
		"version":    Version,
		"git_commit": GitCommit,
		"build_time": BuildTime,
	}
}

// UserAgent для запитів до Discord API (Discord вимагає формат "Name (url, version)")
func UserAgent() string {
	return fmt.Sprintf("DiscordBot (%s, %s)", Name, Version)
}
