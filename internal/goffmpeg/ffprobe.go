package goffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/wader/svgcast/internal/goffmpeg/internal/execextra"
	"github.com/wader/svgcast/internal/goffmpeg/internal/linebuffer"
)

// FFprobePath to ffprobe binary. Will be used as name to cmd.Command.
var FFprobePath = "ffprobe"

// FFProbeResult ffprobe result
type FFProbeResult struct {
	Format  FFProbeFormat   `json:"format"`
	Streams []FFProbeStream `json:"streams"`
}

// FFProbeStream ffprobe stream result
type FFProbeStream struct {
	Index        uint   `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	PixFmt       string `json:"pix_fmt"`
	Width        uint   `json:"width"`
	Height       uint   `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
	NbFrames     string `json:"nb_frames"`
	Duration     string `json:"duration"`
	BitRate      string `json:"bit_rate"`
}

// FFProbeFormat ffprobe format result
type FFProbeFormat struct {
	FormatName     string `json:"format_name"`
	FormatLongName string `json:"format_long_name"`
	Duration       string `json:"duration"`
	Size           string `json:"size"`
	BitRate        string `json:"bit_rate"`
}

// FirstVideoStream find first video stream
func (fpr FFProbeResult) FirstVideoStream() (FFProbeStream, bool) {
	for _, s := range fpr.Streams {
		if s.CodecType == "video" {
			return s, true
		}
	}
	return FFProbeStream{}, false
}

// FormatName probed format (first value if comma separated)
func (fpr FFProbeResult) FormatName() string {
	return strings.Split(fpr.Format.FormatName, ",")[0]
}

// Duration probed duration
func (fpr FFProbeResult) Duration() time.Duration {
	v, _ := strconv.ParseFloat(fpr.Format.Duration, 64)
	return time.Duration(v * float64(time.Second))
}

func (fpr FFProbeResult) String() string {
	var codecs []string
	for _, s := range fpr.Streams {
		codecs = append(codecs, s.CodecName)
	}
	return fmt.Sprintf("%s:%s", fpr.FormatName(), strings.Join(codecs, ":"))
}

// FFProbeCmd is a ffprobe command
type FFProbeCmd struct {
	Flags []string
	Input Input

	ProbeResult FFProbeResult

	Context             context.Context
	StderrBufferNrLines int

	cmd             *execextra.Cmd
	waitCh          chan error
	stderrLastLines *linebuffer.LastLines
}

// Start ffprobe cmd
func (fp *FFProbeCmd) Start() error {
	if fp.Context != nil {
		fp.cmd = execextra.CommandContext(fp.Context, FFprobePath)
	} else {
		fp.cmd = execextra.Command(FFprobePath)
	}
	fp.cmd.Args = append(fp.cmd.Args,
		"-hide_banner",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
	)
	fp.cmd.Args = append(fp.cmd.Args, fp.Flags...)
	fp.cmd.Args = append(fp.cmd.Args, fp.Input.Flags...)
	if fp.Input.Format != "" {
		fp.cmd.Args = append(fp.cmd.Args, "-f", fp.Input.Format)
	}
	switch file := fp.Input.File.(type) {
	case io.Reader:
		fp.cmd.Stdin = file
		fp.cmd.Args = append(fp.cmd.Args, "pipe:0")
	case string:
		fp.cmd.Args = append(fp.cmd.Args, file)
	default:
		return fmt.Errorf("unknown input type %T", fp.Input.File)
	}

	nrLines := fp.StderrBufferNrLines
	if nrLines == 0 {
		nrLines = 100
	}
	fp.stderrLastLines = linebuffer.NewLastLines(nrLines)
	fp.cmd.Stderr = fp.stderrLastLines

	stdout, err := fp.cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := fp.cmd.Start(); err != nil {
		return err
	}

	fp.waitCh = make(chan error, 1)
	go func() {
		jsonErr := json.NewDecoder(stdout).Decode(&fp.ProbeResult)
		// drain so ffprobe does not block on a full pipe
		_, _ = io.Copy(io.Discard, stdout)
		waitErr := fp.cmd.Wait()
		fp.stderrLastLines.Close()
		if waitErr != nil {
			fp.waitCh <- waitErr
			return
		}
		fp.waitCh <- jsonErr
	}()

	return nil
}

// Wait for ffprobe cmd to finish
// Note that the error message might include command details that are sensitive
func (fp *FFProbeCmd) Wait() error {
	if err := <-fp.waitCh; err != nil {
		return fmt.Errorf("%w: %s", err, fp.stderrLastLines.String())
	}
	return nil
}

// Run starts and waits for ffprobe to finish
func (fp *FFProbeCmd) Run() error {
	if err := fp.Start(); err != nil {
		return err
	}
	return fp.Wait()
}

// Result start and wait for ffprobe to finish and return info
func (fp *FFProbeCmd) Result() (FFProbeResult, error) {
	if err := fp.Run(); err != nil {
		return FFProbeResult{}, err
	}
	return fp.ProbeResult, nil
}

// Probe is a shorthand for probing an in-memory file
func Probe(ctx context.Context, r io.Reader) (FFProbeResult, error) {
	fp := &FFProbeCmd{Context: ctx, Input: Input{File: r}}
	return fp.Result()
}
