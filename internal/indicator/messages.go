package indicator

import (
	"os"
	"strings"
)

type locale string

const (
	localeEnglish locale = "en"
)

type messages struct {
	idle            string
	listening       string
	stopped         string
	translatePrompt string
	busy            string
	playing         string
	rerecordPrompt  string
	errorPrefix     string
}

func messagesFromEnv() messages {
	return messagesFor(resolveLocale(os.Getenv("LANG")))
}

func resolveLocale(raw string) locale {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(raw, "en") {
		return localeEnglish
	}
	return localeEnglish
}

func messagesFor(tag locale) messages {
	switch tag {
	case localeEnglish:
		fallthrough
	default:
		return messages{
			idle:            "Press [r] to start recording, [q] to quit.",
			listening:       "Listening... press [s] to stop.",
			stopped:         "Recording stopped.",
			translatePrompt: "Would you like to translate the audio? [t] translate  [n] no  [p] play",
			busy:            "Translating…",
			playing:         "Playing translated audio.",
			rerecordPrompt:  "Would you like to record again? [a] again  [d] done  [p] play",
			errorPrefix:     "error: ",
		}
	}
}
