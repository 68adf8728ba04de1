package service

import (
	"context"

	"bingohub/models"
)

// NoopMetrics discards every measurement
type NoopMetrics struct{}

func (NoopMetrics) LobbyCreated(context.Context, int64) {}
func (NoopMetrics) PlayerJoined(context.Context) {}
func (NoopMetrics) NumberCalled(context.Context) {}
func (NoopMetrics) WinClaimed(context.Context, int64) {}
func (NoopMetrics) BalanceTransaction(context.Context, models.TransactionType, int64) {}
func (NoopMetrics) TransactionRetried(context.Context, string) {}
