package main

import "adb-socket-go/pkg"

func main() {
	pkg.Execute()
}
