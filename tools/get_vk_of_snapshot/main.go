package main

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"

	"github.com/vela-protocol/velazk"
)

func main() {
	if len(os.Args) != 4 {
		log.Fatalln("usage:", os.Args[0], "<chunk|batch>", "<paramsdir>", "<assetsdir>")
	}
	var vk []byte
	switch os.Args[1] {
	case "chunk":
		v, err := velazk.NewChunkVerifier(os.Args[2], os.Args[3])
		if err != nil {
			log.Fatalln(err)
		}
		vk = v.ChunkVK()
	case "batch":
		v, err := velazk.NewBatchVerifier(os.Args[2], os.Args[3])
		if err != nil {
			log.Fatalln(err)
		}
		vk = v.BatchVK()
	default:
		log.Fatalln("unknown tier:", os.Args[1])
	}
	fmt.Println(hex.EncodeToString(vk))
}
