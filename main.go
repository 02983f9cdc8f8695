package main

import "github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/cli"

func main() {
	cli.Execute()
}
