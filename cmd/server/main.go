package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ThakurMayank5/doodle-party-server/internal/config"
	"github.com/ThakurMayank5/doodle-party-server/internal/directory"
	"github.com/ThakurMayank5/doodle-party-server/internal/obs"
	"github.com/ThakurMayank5/doodle-party-server/internal/wsserver"
)

func setupRouter(envs config.Envs, dir *directory.Directory) *gin.Engine {
	gin.SetMode(envs.GinMode)

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     envs.ClientURLs,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(envs.ClientURLs) == 1 && envs.ClientURLs[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowOrigins = nil
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	router.GET("/ws", wsserver.Handler(dir))

	return router
}

func main() {
	envs := config.Load()
	obs.Init(envs.GinMode)

	dir := directory.New()
	router := setupRouter(envs, dir)

	srv := &http.Server{
		Addr:    ":" + envs.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", envs.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
