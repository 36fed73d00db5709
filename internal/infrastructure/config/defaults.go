package config

import "time"

const (
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultScannerTop        = 20
	DefaultAlertTitle        = "Wallet status change detected"
	DefaultAlertGreeting     = "Wallet status monitor started."
)
