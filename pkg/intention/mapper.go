package intention

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const fallbackText = "I'm trying to communicate"

// Mapper translates classified intentions into spoken phrases. The table is
// read by every pipeline invocation and appended to on the rare dynamic
// registration path, so reads and writes go through an RWMutex.
type IMapper interface {
	MapToText(intention string, customText string) string
	Register(intention string, text string)
	All() map[string]string
}

type mapper struct {
	mu    sync.RWMutex
	table map[string]string
	log   *logrus.Logger
}

func NewMapper(log *logrus.Logger) IMapper {
	return &mapper{
		table: defaultTable(),
		log:   log,
	}
}

func (m *mapper) MapToText(intention string, customText string) string {
	// The classifier's suggested text wins verbatim.
	if customText != "" {
		return customText
	}

	m.mu.RLock()
	text, ok := m.table[strings.ToLower(intention)]
	m.mu.RUnlock()

	if !ok {
		text = fallbackText
	}

	m.log.WithFields(logrus.Fields{
		"intention": intention,
		"text":      text,
	}).Debug("Intention mapped")

	return text
}

func (m *mapper) Register(intention string, text string) {
	m.mu.Lock()
	m.table[strings.ToLower(intention)] = text
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{
		"intention": intention,
	}).Info("Custom intention registered")
}

func (m *mapper) All() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := make(map[string]string, len(m.table))
	for k, v := range m.table {
		snapshot[k] = v
	}

	return snapshot
}

func defaultTable() map[string]string {
	return map[string]string{
		"yes":         "Yes",
		"no":          "No",
		"maybe":       "Maybe",
		"help":        "I need help",
		"stop":        "Please stop",
		"continue":    "Please continue",
		"hello":       "Hello",
		"goodbye":     "Goodbye",
		"thank_you":   "Thank you",
		"please":      "Please",
		"pain":        "I'm in pain",
		"discomfort":  "I'm uncomfortable",
		"comfortable": "I'm comfortable",
		"hungry":      "I'm hungry",
		"thirsty":     "I'm thirsty",
		"tired":       "I'm tired",
		"alert":       "I'm alert",
		"bathroom":    "I need to use the bathroom",
		"water":       "I need water",
		"medicine":    "I need my medicine",
		"call_nurse":  "Please call the nurse",
		"call_doctor": "Please call the doctor",
		"family":      "I want to see my family",
		"rest":        "I need to rest",
		"sit_up":      "Help me sit up",
		"lie_down":    "Help me lie down",
		"cold":        "I'm cold",
		"hot":         "I'm hot",
		"music":       "I want to listen to music",
		"tv":          "I want to watch TV",
		"read":        "I want to read",
		"talk":        "I want to talk",
		"alone":       "I want to be alone",
		"unknown":     "I'm trying to communicate something",
	}
}
