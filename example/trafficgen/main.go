// Command trafficgen emulates the downstream combat stream of a game
// server so combatcap can be exercised without the real game.
//
// Run it, connect any client to keep the TCP session open and capture
// on loopback:
//
//	go run ./example/trafficgen --addr="127.0.0.1:7777"
//	nc 127.0.0.1 7777 >/dev/null &
//	sudo combatcap --input-raw="lo:7777" --output-stdout
package main

import (
	"bytes"
	"encoding/binary"
	"flag"
	"math/rand"
	"net"
	"time"

	slog "github.com/vearne/simplelog"
	"github.com/westhule/combatcap/decode"
	"github.com/westhule/combatcap/wire"
)

var (
	addr     string
	interval time.Duration
)

func init() {
	flag.StringVar(&addr, "addr", "127.0.0.1:7777", "listen address")
	flag.DurationVar(&interval, "interval", 400*time.Millisecond, "delay between casts")
}

func main() {
	flag.Parse()
	rand.Seed(time.Now().UnixNano())

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		slog.Fatal("listen: %v", err)
	}
	slog.Info("emitting combat frames on %v", addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			slog.Fatal("accept: %v", err)
		}
		go serve(conn)
	}
}

type skill struct {
	name string
	id   int32
}

func serve(conn net.Conn) {
	defer conn.Close()
	slog.Info("client connected: %v", conn.RemoteAddr())

	player := [4]byte{0x10, 0x00, 0x00, 0x01}
	boss := [4]byte{0x20, 0x00, 0x00, 0x0a}
	skills := []skill{
		{"Flame Arrow", 70001},
		{"Ice Spear", 70002},
		{"Lightning Bolt", 70003},
	}

	hp := int32(1000000)
	for n := 0; ; n++ {
		sk := skills[n%len(skills)]
		damage := uint32(500 + rand.Intn(1500))
		crit := rand.Intn(4) == 0

		if err := writeFrame(conn, decode.FrameSkillInfo, skillInfoPayload(player, boss, sk.name)); err != nil {
			slog.Info("client gone: %v", err)
			return
		}
		time.Sleep(interval / 4)

		if err := writeFrame(conn, decode.FrameSkillDamage, skillDamagePayload(player, boss, damage, sk.id, crit)); err != nil {
			slog.Info("client gone: %v", err)
			return
		}

		prev := hp
		hp -= int32(damage)
		if hp <= 0 {
			hp = 1000000
		}
		if err := writeFrame(conn, decode.FrameChangeHp, changeHpPayload(boss, prev, hp)); err != nil {
			slog.Info("client gone: %v", err)
			return
		}
		time.Sleep(interval)
	}
}

func writeFrame(conn net.Conn, frameType int32, payload []byte) error {
	head := make([]byte, wire.HeaderSize)
	binary.LittleEndian.PutUint32(head, uint32(frameType))
	binary.LittleEndian.PutUint32(head[4:], uint32(len(payload)))
	head[8] = wire.EncodingRaw
	if _, err := conn.Write(head); err != nil {
		return err
	}
	_, err := conn.Write(payload)
	return err
}

func writeID(b *bytes.Buffer, id [4]byte) {
	b.Write(id[:])
	b.Write(make([]byte, 4))
}

func writeName(b *bytes.Buffer, name string) {
	binary.Write(b, binary.LittleEndian, uint32(len(name)))
	b.WriteString(name)
}

func skillInfoPayload(usedBy, target [4]byte, name string) []byte {
	var b bytes.Buffer
	writeID(&b, usedBy)
	writeID(&b, target)
	writeID(&b, usedBy) // owner
	writeName(&b, name)
	binary.Write(&b, binary.LittleEndian, float32(102.5)) // X
	b.Write(make([]byte, 4))
	binary.Write(&b, binary.LittleEndian, float32(-3.25)) // Y
	b.Write(make([]byte, 4))
	binary.Write(&b, binary.LittleEndian, int32(0)) // extra
	return b.Bytes()
}

func skillDamagePayload(usedBy, target [4]byte, damage uint32, skillID int32, crit bool) []byte {
	var b bytes.Buffer
	writeID(&b, usedBy)
	writeID(&b, target)
	binary.Write(&b, binary.LittleEndian, damage)
	b.Write(make([]byte, 12))
	flags := make([]byte, 6)
	if crit {
		flags[0] = 0x01
	}
	b.Write(flags)
	binary.Write(&b, binary.LittleEndian, skillID)
	return b.Bytes()
}

func changeHpPayload(target [4]byte, prev, current int32) []byte {
	var b bytes.Buffer
	writeID(&b, target)
	binary.Write(&b, binary.LittleEndian, prev)
	binary.Write(&b, binary.LittleEndian, current)
	return b.Bytes()
}
