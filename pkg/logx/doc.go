// Package logx is a small structured-logging facade over zerolog.
//
// It keeps the call sites short (Logger.Info("msg", logx.String(...)))
// and keeps sink wiring (console, file, level) in one place so the
// logger can be re-applied on config hot reload without swapping the
// Logger values that components already hold.
//
// The zero Logger value is a safe no-op.
package logx
