// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package main

import (
	"context"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/api"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/router"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/server"
)

func main() {
	router.RegisterGroup(api.RegisterRouter)
	if err := server.InitServer(context.Background()); err != nil {
		panic(err)
	}
}
