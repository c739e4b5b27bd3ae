package main

import (
	"fmt"
	"log"
	"os"

	"github.com/vela-protocol/velazk"
)

func main() {
	if len(os.Args) != 3 {
		log.Fatalln("usage:", os.Args[0], "<paramsdir>", "<assetsdir>")
	}
	snap, err := velazk.OpenSnapshot(os.Args[1], os.Args[2])
	if err != nil {
		log.Fatalln(err)
	}
	if err := snap.CheckIntegrity(); err != nil {
		log.Fatalln(err)
	}
	p := snap.Params()
	fmt.Println("ok;", "max steps:", p.MaxSteps, "capacity:", p.Capacity)
}
