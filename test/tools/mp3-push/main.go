// Command mp3-push decodes a local MP3 file and streams it through a
// session at real-time pace, for exercising a receiver without a live
// capture device.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"time"

	mp3 "github.com/hajimehoshi/go-mp3"

	"github.com/tonyrewin/rtspstreamer/service"
	"github.com/tonyrewin/rtspstreamer/session"
)

func main() {
	fileFlag := flag.String("file", "", "MP3 file to stream")
	endpointFlag := flag.String("endpoint", "", "Destination endpoint (srt:// or quic://)")
	profileFlag := flag.String("profile", "push", "Stream profile: push or session")
	blockFlag := flag.Int("block", 64, "Samples per block fed to the session")
	flag.Parse()

	if *fileFlag == "" || *endpointFlag == "" {
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  mp3-push --file music.mp3 --endpoint srt://host:6000?streamid=live/music\n")
		fmt.Fprintf(os.Stderr, "  mp3-push --file music.mp3 --endpoint quic://host:4443 --profile session\n")
		os.Exit(1)
	}

	f, err := os.Open(*fileFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", *fileFlag, err)
		os.Exit(1)
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode %s: %v\n", *fileFlag, err)
		os.Exit(1)
	}

	profile := service.Push()
	if *profileFlag == "session" {
		profile = service.SessionStream()
	}

	sess := session.New(profile, *endpointFlag, session.Options{
		SampleRate: dec.SampleRate(),
	})
	defer sess.Close()

	if sess.State() != session.Streaming {
		fmt.Fprintf(os.Stderr, "session did not reach streaming: %v\n", sess.LastError())
		os.Exit(1)
	}

	fmt.Printf("streaming %s to %s at %d Hz\n", *fileFlag, *endpointFlag, dec.SampleRate())

	// The decoder emits 16-bit little-endian stereo; downmix to mono float
	// blocks and pace them at real time.
	blockSize := *blockFlag
	raw := make([]byte, blockSize*4)
	block := make([]float32, blockSize)
	blockDur := time.Duration(blockSize) * time.Second / time.Duration(dec.SampleRate())

	ticker := time.NewTicker(blockDur)
	defer ticker.Stop()

	for {
		n, err := readFull(dec, raw)
		if n == 0 {
			break
		}
		frames := n / 4
		for i := 0; i < frames; i++ {
			l := int16(binary.LittleEndian.Uint16(raw[4*i:]))
			r := int16(binary.LittleEndian.Uint16(raw[4*i+2:]))
			block[i] = (float32(l) + float32(r)) / 2 / 32768.0
		}
		sess.ProcessBlock(block[:frames])
		if err != nil {
			break
		}
		<-ticker.C
	}

	fmt.Printf("done, %d samples streamed\n", sess.Clock())
}

// readFull reads until buf is full or the stream ends.
func readFull(dec *mp3.Decoder, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := dec.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
