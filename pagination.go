package main

import (
	"net/url"
	"strconv"
)

type Page struct {
	Num     int    `json:"num"`
	URL     string `json:"url,omitempty"`
	Current bool   `json:"current,omitempty"`
}

type Pages []Page

type PaginationConfig struct {
	ipp   int
	page  int
	total int
	url   string
	param string
}

// Pagination lists the pages of a listing. A single page needs no links.
func Pagination(pc PaginationConfig) Pages {
	if pc.ipp < 1 || pc.total <= pc.ipp {
		return make(Pages, 0)
	}
	pCount := (pc.total + pc.ipp - 1) / pc.ipp
	// Normalize first page
	if pc.page < 1 {
		pc.page = 1
	}
	pURL, err := url.Parse(pc.url)
	if err != nil {
		pURL = &url.URL{}
	}
	val := pURL.Query()

	pages := make(Pages, pCount)
	for i := 1; i <= pCount; i++ {
		if i == pc.page {
			pages[i-1] = Page{Num: i, Current: true}
			continue
		}
		val.Set(pc.param, strconv.Itoa(i))
		pURL.RawQuery = val.Encode()
		pages[i-1] = Page{Num: i, URL: pURL.String()}
	}
	return pages
}
