package main

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"

	"github.com/aquilax/tripcode"
	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"

	"github.com/aquilax/itemboard/item"
)

func hfSlug(s string) string {
	sl := slug.Make(s)
	if sl == "" {
		sl = "item"
	}
	return sl + ".html"
}

func getTripCode(s string) string {
	if s == "" {
		return ""
	}
	return tripcode.Tripcode(s)
}

func getVote(t string) int {
	if t == "y" {
		return 1
	}
	if t == "n" {
		return -1
	}
	return 0
}

func inHoneypot(t string) bool {
	return len(t) > 0
}

func renderText(t string) string {
	extensions := blackfriday.NoIntraEmphasis |
		blackfriday.Tables |
		blackfriday.FencedCode |
		blackfriday.Autolink |
		blackfriday.Strikethrough |
		blackfriday.HardLineBreak |
		blackfriday.SpaceHeadings |
		blackfriday.HeadingIDs

	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.UseXHTML |
			blackfriday.Smartypants |
			blackfriday.SmartypantsFractions |
			blackfriday.SmartypantsLatexDashes,
	})
	unsafe := blackfriday.Run([]byte(t), blackfriday.WithRenderer(renderer), blackfriday.WithExtensions(extensions))
	return string(bluemonday.UGCPolicy().SanitizeBytes(unsafe))
}

func hfGravatar(tripcode string) string {
	if tripcode == "" {
		return "http://www.gravatar.com/avatar/00000000000000000000000000000000?d=retro"
	}
	hash := md5.Sum([]byte(tripcode))
	return "http://www.gravatar.com/avatar/" + hex.EncodeToString(hash[:]) + "?d=retro"
}

func itemPath(id item.ID, title string) string {
	return "/items/" + strconv.FormatInt(id, 10) + "/" + hfSlug(title)
}

// getURL links top level items to their page and comments to the page of
// the subtree that shows them.
func getURL(baseURL string, it *item.Item, depthLimit int) string {
	if it.ParentID == nil {
		return baseURL + itemPath(it.ID, it.TitleString())
	}
	root, err := item.CommentSubTreeRootID(it.Path, depthLimit)
	if err != nil || root == it.ID {
		root = *it.ParentID
	}
	return baseURL + itemPath(root, "") + "#I" + strconv.FormatInt(it.ID, 10)
}
