package main

import (
	"go.uber.org/fx"

	"github.com/bakery-bliss/bakery/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
