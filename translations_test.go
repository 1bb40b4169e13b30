package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTranslations(t *testing.T) {
	Convey("Given TranslationPool", t, func() {
		tp := NewTransPool("", zerolog.Nop())
		Convey("Get gets new language", func() {
			ln := tp.Get("en")
			So(ln, ShouldNotBeNil)
			Convey("Translating works", func() {
				So(ln.Lang("test"), ShouldEqual, "test")
			})
			Convey("The same language is reused", func() {
				So(tp.Get("en"), ShouldEqual, ln)
			})
		})
	})

	Convey("Given a translations directory", t, func() {
		dir := t.TempDir()
		err := os.WriteFile(filepath.Join(dir, "bg.yaml"), []byte("Home: Начало\n"), 0o644)
		So(err, ShouldBeNil)
		tp := NewTransPool(dir, zerolog.Nop())

		Convey("Known keys are translated", func() {
			So(tp.Get("bg").Lang("Home"), ShouldEqual, "Начало")
		})
		Convey("Unknown keys fall back to the key", func() {
			So(tp.Get("bg").Lang("Edit"), ShouldEqual, "Edit")
		})
		Convey("Missing languages fall back to the key", func() {
			So(tp.Get("de").Lang("Home"), ShouldEqual, "Home")
		})
		Convey("Path traversal is ignored", func() {
			So(tp.Get("../bg").Lang("Home"), ShouldEqual, "Home")
		})
	})
}
