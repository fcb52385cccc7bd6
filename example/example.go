package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/muzzletov/mendxml"
)

const tileset = `<?xml version="1.0" encoding="UTF-8"?>
<!-- exported by hand, mind the raw characters -->
<tileset name="dungeon & caves" columns="8">
	<sheet id="walls" width="16"/>
	<sheet id="floor" width="16"/>
	<tile id="t1" sheet="walls" rule="n < 3">
		lit when the player
		stands nearby
	</tile>
</tileset>`

func cleanTileset() {
	root, err := mendxml.ParseString(tileset)

	if err != nil {
		log.Fatal(err.Error())
		return
	}

	mendxml.Normalize(root)

	sheets, err := root.Select("sheet[width=16]")

	if err != nil {
		log.Fatal(err.Error())
		return
	}

	for _, sheet := range sheets {
		println(sheet.Describe())
	}

	if err := mendxml.RenderTo(os.Stdout, root, mendxml.RenderOptions{Indent: "  "}); err != nil {
		log.Fatal(err.Error())
	}
}

func fetchFeedTitles(url string) {
	client := mendxml.NewClient()
	client.SetTimeout(10 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	root, err := client.FetchParse(ctx, url)

	if err != nil {
		log.Fatal(err.Error())
		return
	}

	for title := range root.Elements("title", true) {
		fmt.Println(title.Text)
	}
}

func main() {
	cleanTileset()

	if len(os.Args) > 1 {
		fetchFeedTitles(os.Args[1])
	}
}
