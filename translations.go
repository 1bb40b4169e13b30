package main

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	yaml "go.yaml.in/yaml/v3"
)

type Translations map[string]string

type Language struct {
	found bool
	tr    Translations
}

// TransPool lazily loads <basePath>/<lang>.yaml files.
type TransPool struct {
	basePath  string
	log       zerolog.Logger
	mu        sync.Mutex
	languages map[string]*Language
}

func NewTransPool(basePath string, log zerolog.Logger) *TransPool {
	return &TransPool{
		basePath:  basePath,
		log:       log,
		languages: make(map[string]*Language),
	}
}

func NewLanguage(tr Translations) *Language {
	if tr == nil {
		return &Language{found: false, tr: make(Translations)}
	}
	return &Language{found: true, tr: tr}
}

func (tp *TransPool) Get(lang string) *Language {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	l, ok := tp.languages[lang]
	if !ok {
		l = NewLanguage(tp.load(lang))
		tp.languages[lang] = l
	}
	return l
}

func (tp *TransPool) load(lang string) Translations {
	if tp.basePath == "" || lang == "" || filepath.Base(lang) != lang {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(tp.basePath, lang+".yaml"))
	if err != nil {
		if !os.IsNotExist(err) {
			tp.log.Warn().Err(err).Str("language", lang).Msg("read translations")
		}
		return nil
	}
	var tr Translations
	if err := yaml.Unmarshal(data, &tr); err != nil {
		tp.log.Warn().Err(err).Str("language", lang).Msg("parse translations")
		return nil
	}
	return tr
}

func (l *Language) Lang(text string) string {
	if l == nil || !l.found {
		// Language was not found, return the string
		return text
	}
	res, ok := l.tr[text]
	if !ok {
		// Key was not found
		return text
	}
	// Return translated string
	return res
}
