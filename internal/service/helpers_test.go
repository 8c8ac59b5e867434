package service

import "issue-agent-be/internal/pkg/logger"

type nopLogger struct{}

func newNopLogger() logger.ILogger { return nopLogger{} }

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }
