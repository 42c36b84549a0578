package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TriggerSnapshot writes an on-demand backup snapshot.
func TriggerSnapshot(ctx *gin.Context) {
	path, err := snapshotter.Snapshot()

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write snapshot"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"path": path})
}

// CleanupSnapshots removes snapshots older than the retention window.
func CleanupSnapshots(ctx *gin.Context) {
	removed, err := snapshotter.Cleanup()

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clean up snapshots"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"removed": removed})
}
