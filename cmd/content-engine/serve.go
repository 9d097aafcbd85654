// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"net/http"
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the pipeline as an HTTP trigger",
	Long: `Serve starts an HTTP server with two endpoints: POST /generate runs one
pipeline execution and returns the persisted draft as JSON, GET /healthz
reports liveness. Runs serialize behind a mutex; the pipeline holds no
cross-run state and the backlog store is the only shared resource.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		cfg := pipelineConfig()
		p, journal, err := buildPipeline(cfg)
		if err != nil {
			return err
		}
		if journal != nil {
			defer journal.Close()
		}

		var mu sync.Mutex

		gin.SetMode(gin.ReleaseMode)
		router := gin.New()
		router.Use(gin.Logger(), gin.Recovery())

		router.GET("/healthz", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		router.POST("/generate", func(c *gin.Context) {
			var req struct {
				Brief string `json:"brief"`
			}
			// An empty body means the standing brief.
			c.ShouldBindJSON(&req)

			brief := cfg.Brief
			if req.Brief != "" {
				brief.Text = req.Brief
			}

			mu.Lock()
			item, err := p.Run(c.Request.Context(), brief, os.Stderr)
			mu.Unlock()
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, item)
		})

		return router.Run(addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")

	rootCmd.AddCommand(serveCmd)
}
