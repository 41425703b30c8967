package main

import (
	"github.com/judica-dev/judica/internal/gui"
)

func main() {
	gui.NewApp().Run()
}
