package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// AssetStore removes previously uploaded files.
type AssetStore interface {
	DeleteByURL(ctx context.Context, url string) error
}

// Compensator ties an uploaded asset to the database write that references it.
type Compensator struct {
	assets AssetStore
	log    *logrus.Logger
}

func NewCompensator(assets AssetStore, log *logrus.Logger) *Compensator {
	return &Compensator{assets: assets, log: log}
}

// Persist runs write. If write fails the freshly uploaded newURL is deleted;
// if it succeeds and the asset was replaced, oldURL is deleted. Cleanup never
// changes the result, which is write's error.
func (c *Compensator) Persist(ctx context.Context, newURL, oldURL string, write func() error) error {
	if err := write(); err != nil {
		if newURL != "" {
			c.Discard(ctx, newURL, "write failed")
		}
		return err
	}
	if newURL != "" && oldURL != "" && oldURL != newURL {
		c.Discard(ctx, oldURL, "replaced")
	}
	return nil
}

// Discard deletes url, logging failures at warning level.
func (c *Compensator) Discard(ctx context.Context, url, reason string) {
	if c.assets == nil || url == "" {
		return
	}
	// cleanup must not inherit a request context that is already cancelled
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	if err := c.assets.DeleteByURL(cctx, url); err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{"url": url, "reason": reason}).Warn("asset cleanup failed")
		return
	}
	c.log.WithFields(logrus.Fields{"url": url, "reason": reason}).Debug("asset removed")
}
