package main

import (
	"fmt"
	"time"
)

var nowFunc = time.Now // mockable

// remind runs a single reminder sweep immediately, outside the daily schedule.
func (cli *commandLine) remind() error {
	res, err := cli.reminder.RunSweep(nowFunc())
	if err != nil {
		return err
	}
	fmt.Printf("reminder sweep done: %d tasks matched, %d sent, %d failed\n", res.TasksMatched, res.Sent, res.Failed)
	return nil
}
