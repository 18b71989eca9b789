package goffmpeg

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/wader/svgcast/internal/goffmpeg/internal/execextra"
	"github.com/wader/svgcast/internal/goffmpeg/internal/kvargs"
	"github.com/wader/svgcast/internal/goffmpeg/internal/linebuffer"
)

// FFmpegPath to ffmpeg binary. Will be used as name to cmd.Command.
var FFmpegPath = "ffmpeg"

// FFmpegCmd is a ffmpeg command
// ffmpeg
//
//	Flags
//	-progress pipe (if ProgressFn)
//	-filter_complex FilterGraph
//	Input
//	  -i io.Reader/string
//	...
//	Output
//	  Map
//	    -map Specifier -codec:N Codec
//	  ...
//	  io.Writer/string
//	...
type FFmpegCmd struct {
	Flags       []string
	Inputs      []*Input
	FilterGraph *FilterGraph
	Outputs     []*Output

	Context             context.Context
	CloseAfterStart     []io.Closer
	CloseAfterWait      []io.Closer
	StderrBufferNrLines int
	Stderr              io.Writer
	DebugLog            Printer
	ProgressFn          func(p Progress)

	cmd             *execextra.Cmd
	stderrLastLines *linebuffer.LastLines
	progress        Progress
	progressLines   *linebuffer.Fn
}

// Input is a ffmpeg input, File is a path/url string or an io.Reader that
// will be connected to the process using an extra file descriptor.
type Input struct {
	File    any
	Format  string
	Options map[string]string
	Flags   []string
}

// Output is a ffmpeg output, File is a path string or an io.Writer.
type Output struct {
	File    any
	Maps    []*Map
	Format  string
	Options map[string]string
	Flags   []string
}

// Map selects a stream or filter graph output label for an output.
type Map struct {
	Specifier string
	Codec     string
	Options   map[string]string
	Flags     []string
}

type FilterGraph []FilterChain

type FilterChain []Filter

type Filter struct {
	Name    string
	Inputs  []string
	Outputs []string
	Options map[string]string
}

// Progress is one block of ffmpeg -progress output
type Progress struct {
	Frame      int64
	FPS        float32
	BitRate    float32
	TotalSize  int64
	OutTimeUS  int64
	DupFrames  int64
	DropFrames int64
	Speed      float32
	Progress   string
}

// Done is true for the last progress block
func (p Progress) Done() bool { return p.Progress == "end" }

// ParseProgress parse a ffmpeg progress line, returns true when a block is complete
// Example output:
// frame=241
// fps=79.81
// bitrate= 107.1kbits/s
// total_size=116071
// out_time_us=8674000
// dup_frames=0
// drop_frames=0
// speed=2.87x
// progress=continue or end
func ParseProgress(p *Progress, line string) bool {
	name, rawValue, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return false
	}
	rawValue = strings.TrimSpace(rawValue)
	value := strings.TrimFunc(rawValue, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	i64, _ := strconv.ParseInt(value, 10, 64)
	f64, _ := strconv.ParseFloat(value, 64)
	f32 := float32(f64)

	switch name {
	case "frame":
		p.Frame = i64
	case "fps":
		p.FPS = f32
	case "bitrate":
		var scale float32 = 1.0
		if strings.HasSuffix(rawValue, "kbits/s") {
			scale = 1000.0
		}
		p.BitRate = f32 * scale
	case "total_size":
		p.TotalSize = i64
	case "out_time_us":
		p.OutTimeUS = i64
	case "dup_frames":
		p.DupFrames = i64
	case "drop_frames":
		p.DropFrames = i64
	case "speed":
		p.Speed = f32
	case "progress":
		p.Progress = rawValue
	}

	return name == "progress"
}

var filterGraphValueEscapeRe = regexp.MustCompile(`[,:;\[\]]`)

func (fg FilterGraph) String() string {
	var chains []string
	for _, chain := range fg {
		var filters []string
		for _, f := range chain {
			var sb strings.Builder
			for _, input := range f.Inputs {
				sb.WriteString("[" + input + "]")
			}
			sb.WriteString(f.Name)
			// sorted to keep args stable
			opts := kvargs.MapToSortedArgs(f.Options, func(k, v string) []string {
				return []string{k + "=" + filterGraphValueEscapeRe.ReplaceAllString(v, `\$0`)}
			})
			if len(opts) > 0 {
				sb.WriteString("=" + strings.Join(opts, ":"))
			}
			for _, output := range f.Outputs {
				sb.WriteString("[" + output + "]")
			}
			filters = append(filters, sb.String())
		}
		chains = append(chains, strings.Join(filters, ","))
	}
	return strings.Join(chains, ";")
}

type pipeFn func(index int, f any) (string, error)

func (fm *FFmpegCmd) buildArgs(inputFn pipeFn, outputFn pipeFn) ([]string, error) {
	args := []string{"-nostdin", "-hide_banner"}
	args = append(args, fm.Flags...)

	if fm.ProgressFn != nil {
		fm.progressLines = linebuffer.NewFn(fm.progressLine)
		a, err := outputFn(-1, fm.progressLines)
		if err != nil {
			return nil, err
		}
		args = append(args, "-progress", a)
	}

	if fm.FilterGraph != nil && len(*fm.FilterGraph) > 0 {
		args = append(args, "-filter_complex", fm.FilterGraph.String())
	}

	for inputIndex, input := range fm.Inputs {
		args = append(args, kvargs.MapToSortedArgs(input.Options, kvargs.OptionArg(""))...)
		args = append(args, input.Flags...)
		if input.Format != "" {
			args = append(args, "-f", input.Format)
		}
		a, err := fileArg(inputIndex, input.File, inputFn)
		if err != nil {
			return nil, err
		}
		args = append(args, "-i", a)
	}

	for outputIndex, output := range fm.Outputs {
		for streamIndex, m := range output.Maps {
			args = append(args, "-map", m.Specifier)
			streamIndexStr := strconv.Itoa(streamIndex)
			if m.Codec != "" {
				args = append(args, "-codec:"+streamIndexStr, m.Codec)
			}
			args = append(args, kvargs.MapToSortedArgs(m.Options, kvargs.OptionArg(":"+streamIndexStr))...)
			args = append(args, m.Flags...)
		}
		if output.Format != "" {
			args = append(args, "-f", output.Format)
		}
		args = append(args, kvargs.MapToSortedArgs(output.Options, kvargs.OptionArg(""))...)
		args = append(args, output.Flags...)

		a, err := fileArg(outputIndex, output.File, outputFn)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}

	return args, nil
}

func fileArg(index int, file any, fn pipeFn) (string, error) {
	switch f := file.(type) {
	case string:
		return f, nil
	case io.Reader, io.Writer:
		return fn(index, f)
	default:
		return "", fmt.Errorf("unknown file type %T should be string, io.Reader or io.Writer", file)
	}
}

// Args returns the arguments ffmpeg would be started with, pipes are shown
// as placeholders.
func (fm *FFmpegCmd) Args() []string {
	args, err := fm.buildArgs(
		func(index int, _ any) (string, error) { return fmt.Sprintf("pipe-input-index:%d", index), nil },
		func(index int, _ any) (string, error) { return fmt.Sprintf("pipe-output-index:%d", index), nil },
	)
	if err != nil {
		return []string{"error: " + err.Error()}
	}
	return args
}

func (fm *FFmpegCmd) progressLine(line string) {
	if ParseProgress(&fm.progress, line) {
		fm.ProgressFn(fm.progress)
		fm.progress = Progress{}
	}
}

func (fm *FFmpegCmd) Start() error {
	if fm.Context != nil {
		fm.cmd = execextra.CommandContext(fm.Context, FFmpegPath)
	} else {
		fm.cmd = execextra.Command(FFmpegPath)
	}
	for _, closer := range fm.CloseAfterStart {
		fm.cmd.CloseAfterStart(closer)
	}
	for _, closer := range fm.CloseAfterWait {
		fm.cmd.CloseAfterWait(closer)
	}

	args, err := fm.buildArgs(
		func(_ int, f any) (string, error) {
			fd, err := fm.cmd.ExtraIn(f.(io.Reader))
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("pipe:%d", fd), nil
		},
		func(_ int, f any) (string, error) {
			fd, err := fm.cmd.ExtraOut(f.(io.Writer))
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("pipe:%d", fd), nil
		},
	)
	if err != nil {
		fm.cmd.Abort()
		return err
	}

	nrLines := fm.StderrBufferNrLines
	if nrLines == 0 {
		nrLines = 100
	}
	fm.stderrLastLines = linebuffer.NewLastLines(nrLines)
	stderrws := []io.Writer{fm.stderrLastLines}
	if fm.Stderr != nil {
		stderrws = append(stderrws, fm.Stderr)
	}
	fm.cmd.Stderr = io.MultiWriter(stderrws...)
	fm.cmd.Args = append(fm.cmd.Args, args...)

	if fm.DebugLog != nil {
		fm.DebugLog.Printf("%s %s", FFmpegPath, strings.Join(args, " "))
	}

	return fm.cmd.Start()
}

// Wait for cmd to finish
// Note that the error message might include command details that are sensitive
func (fm *FFmpegCmd) Wait() error {
	err := fm.cmd.Wait()
	if fm.progressLines != nil {
		fm.progressLines.Close()
	}
	fm.stderrLastLines.Close()

	if err != nil {
		return fmt.Errorf("%w: %s", err, fm.stderrLastLines.String())
	}

	return nil
}

// Run starts and waits for ffmpeg to finish
// Note that the error message might include command details that are sensitive
func (fm *FFmpegCmd) Run() error {
	if err := fm.Start(); err != nil {
		return err
	}
	return fm.Wait()
}

// StderrBuffer returns the last stderr lines as a string
// Note that the stderr might include command details that are sensitive
func (fm *FFmpegCmd) StderrBuffer() string {
	if fm.stderrLastLines == nil {
		return ""
	}
	return fm.stderrLastLines.String()
}
