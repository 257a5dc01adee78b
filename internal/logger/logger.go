// Package logger holds the process-wide file logger. Until Init runs, output
// is discarded so library code can log unconditionally.
package logger

import (
	"io"
	"log"
	"os"
)

var Log = log.New(io.Discard, "", log.LstdFlags)

func Init(logFilePath string) error {
	file, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return err
	}

	Log = log.New(file, "", log.LstdFlags)
	Log.Println("Logger initialized.")
	return nil
}
