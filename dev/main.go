package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	devenv "curriculum-scraper/dev/env"
	"curriculum-scraper/services/cooldown/store"

	"github.com/playwright-community/playwright-go"
)

const exampleConfig = `{
	credentials: { email: "", password: "" },
	lesson_urls: [
		"https://accessim.org/6-8/grade-6/unit-1/section-a/lesson-1?a=teacher",
	],
	delay_ms: 2000,
	export: false,
	database: "<dev_state>/cooldowns.db",
	screenshot_dir: "<dev_state>/screenshots",
	review: { api_key: "${ANTHROPIC_API_KEY}", delay_ms: 1000 },
}
`

func createResultsDb() error {
	path, err := devenv.ResolvePath("<dev_state>/cooldowns.db")
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		fmt.Println("database already created at", path)
		return nil
	}

	fmt.Println("creating database at", path)
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	return s.Close()
}

func writeExampleConfig() error {
	_, err := os.Stat("config.local.json5")
	if err == nil {
		fmt.Println("config.local.json5 already exists, leaving it untouched")
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}
	fmt.Println("writing config.local.json5, fill in your credentials there")
	return os.WriteFile("config.local.json5", []byte(exampleConfig), 0600)
}

func create(recreate, skipBrowser bool) error {
	_, err := os.Stat("go.mod")
	if os.IsNotExist(err) {
		return fmt.Errorf("the dev environment must be created in the repository root (the same directory as the 'go.mod' file)")
	}

	if recreate {
		state, err := devenv.StateDir()
		if err != nil {
			return err
		}
		err = os.RemoveAll(state)
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	screenshots, err := devenv.ResolvePath("<dev_state>/screenshots")
	if err != nil {
		return err
	}
	err = os.MkdirAll(screenshots, 0777)
	if err != nil {
		return err
	}

	err = createResultsDb()
	if err != nil {
		return err
	}
	err = writeExampleConfig()
	if err != nil {
		return err
	}

	if !skipBrowser {
		fmt.Println("installing chromium for playwright")
		err = playwright.Install(&playwright.RunOptions{
			Browsers: []string{"chromium"},
			Verbose:  true,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func main() {
	recreate := flag.Bool("recreate", false, "recreate the dev environment from scratch")
	skipBrowser := flag.Bool("skip-browser", false, "do not install the chromium build used by playwright")
	flag.Parse()

	err := create(*recreate, *skipBrowser)
	if err != nil {
		slog.Error("failed to create dev environment", "err", err.Error())
		os.Exit(1)
	}

	slog.Info("dev environment created sucessfully!")
}
