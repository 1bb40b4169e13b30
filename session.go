package main

import (
	"encoding/json"
	"net/http"
)

// Session collects the data of one response and writes it as JSON.
type Session struct {
	td TemplateData
	ln *Language
}

type TemplateData map[string]interface{}

func NewSession(sc *SiteConfig, ln *Language) *Session {
	return &Session{
		td: NewTemplateData(sc),
		ln: ln,
	}
}

func NewTemplateData(sc *SiteConfig) TemplateData {
	td := make(TemplateData)
	td.Set("title", sc.Title)
	td.Set("description", sc.Description)
	return td
}

func (s *Session) Lang(text string) string {
	return s.ln.Lang(text)
}

// AddWarning records a translated, non fatal remark for the author.
func (s *Session) AddWarning(text string) {
	warnings, _ := s.td["warnings"].([]string)
	s.td.Set("warnings", append(warnings, s.Lang(text)))
}

func (s *Session) render(w http.ResponseWriter, code int) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(s.td)
}

func (td TemplateData) Set(name string, value interface{}) {
	td[name] = value
}

func (s *Session) Set(name string, value interface{}) {
	s.td.Set(name, value)
}
