package main

import (
	"fmt"

	"github.com/kregerl/diskprobe/cmd/cmd"
	"github.com/kregerl/diskprobe/internal/env"
)

func main() {
	PrintLogo()

	_ = cmd.Execute()
}

func PrintLogo() {
	fmt.Println("     _ _     _                     _          ")
	fmt.Println("  __| (_)___| | ___ __  _ __ ___ | |__   ___ ")
	fmt.Println(" / _` | / __| |/ / '_ \\| '__/ _ \\| '_ \\ / _ \\")
	fmt.Println("| (_| | \\__ \\   <| |_) | | | (_) | |_) |  __/")
	fmt.Println(" \\__,_|_|___/_|\\_\\ .__/|_|  \\___/|_.__/ \\___|")
	fmt.Println("                 |_|                         ")
	fmt.Println()
	fmt.Println("Disk image partition and MFT inspection tool")
	fmt.Println()
	fmt.Printf("Version:   %s\n", env.Version)
	fmt.Printf("Commit:    %s\n", env.CommitHash)
	fmt.Printf("Build Time: %s\n", env.BuildTime)
	fmt.Println(" ")
}
