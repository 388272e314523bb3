// Lists the established TCP connections of the game client, the remote
// side is the server address to hand to --input-raw.
//
//	go run ./script/listconn --process="game.exe"
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/westhule/combatcap/util"
)

func main() {
	name := flag.String("process", "game.exe", "executable name of the game client")
	flag.Parse()

	conns, err := util.FindProcessConns(*name)
	if err != nil {
		log.Fatal(err)
	}
	for _, conn := range conns {
		fmt.Printf("pid:%v  %v:%v -> %v:%v\n", conn.Pid,
			conn.Laddr.IP, conn.Laddr.Port, conn.Raddr.IP, conn.Raddr.Port)
	}
}
