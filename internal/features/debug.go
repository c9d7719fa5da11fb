package features

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"runtime/metrics"

	"userbot/internal/core/domain"
	"userbot/internal/core/registry"

	"github.com/rs/zerolog/log"
)

const kb = 1024
const debugTemplate = `<pre>allocated mem: %d KB
goroutines running: %d
heap: %d KB
stack: %d KB
compiled with %s for %s-%s</pre>`
const metricCount = 3

func Debug() *registry.Commands {
	c := registry.NewCommands("debug")
	c.MustAdd(registry.Command{
		Matcher:  registry.Literal("debug", "stats"),
		Category: categoryAbout,
		Doc:      "Shows memory usage and build information of the running bot",
		Handler:  debugInfo,
	})

	return c
}

func debugInfo(msg *domain.Message) string {
	data := make([]metrics.Sample, metricCount)
	data[0] = metrics.Sample{Name: "/memory/classes/heap/objects:bytes"}
	data[1] = metrics.Sample{Name: "/memory/classes/heap/stacks:bytes"}
	data[2] = metrics.Sample{Name: "/memory/classes/total:bytes"}

	metrics.Read(data)

	for _, sample := range data {
		log.Debug().Int("messageId", msg.ID).Str("name", sample.Name).Msgf("%d", sample.Value.Uint64())
	}

	goos, goarch := runtime.GOOS, runtime.GOARCH
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "GOOS":
				goos = setting.Value
			case "GOARCH":
				goarch = setting.Value
			}
		}
	}

	return fmt.Sprintf(
		debugTemplate,
		data[2].Value.Uint64()/kb,
		runtime.NumGoroutine(),
		data[0].Value.Uint64()/kb,
		data[1].Value.Uint64()/kb,
		runtime.Version(), goos, goarch,
	)
}
