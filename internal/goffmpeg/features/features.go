// Package features lists what a ffmpeg binary supports by parsing its help output.
package features

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

type Features struct {
	Version  VersionParts `json:"version"`
	Encoders []Coder      `json:"encoders"`
	Decoders []Coder      `json:"decoders"`
	Muxers   []Format     `json:"muxers"`
}

type VersionParts struct {
	Full    string `json:"full"`
	Release string `json:"release"`
	Major   uint   `json:"major"`
	Minor   uint   `json:"minor"`
	Patch   uint   `json:"patch"`
}

type MediaType uint

const (
	MediaTypeAudio MediaType = iota
	MediaTypeVideo
	MediaTypeSubtitle
)

func (mt MediaType) String() string {
	switch mt {
	case MediaTypeAudio:
		return "audio"
	case MediaTypeVideo:
		return "video"
	case MediaTypeSubtitle:
		return "subtitle"
	}
	return fmt.Sprintf("unknown (%d)", mt)
}

// Coder is a encoder or decoder
type Coder struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	MediaType   MediaType `json:"media_type"`
}

// Format is a muxer
type Format struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HasEncoder reports if an encoder with name is available
func (f Features) HasEncoder(name string) bool {
	for _, c := range f.Encoders {
		if c.Name == name {
			return true
		}
	}
	return false
}

// HasDecoder reports if a decoder with name is available
func (f Features) HasDecoder(name string) bool {
	for _, c := range f.Decoders {
		if c.Name == name {
			return true
		}
	}
	return false
}

// HasMuxer reports if a muxer with name is available
func (f Features) HasMuxer(name string) bool {
	for _, m := range f.Muxers {
		if m.Name == name {
			return true
		}
	}
	return false
}

func LoadFeatures(ctx context.Context, ffmpegPath string) (Features, error) {
	var f Features
	var err error

	if f.Version, err = Version(ctx, ffmpegPath); err != nil {
		return Features{}, err
	}
	if f.Encoders, err = Encoders(ctx, ffmpegPath); err != nil {
		return Features{}, err
	}
	if f.Decoders, err = Decoders(ctx, ffmpegPath); err != nil {
		return Features{}, err
	}
	if f.Muxers, err = Muxers(ctx, ffmpegPath); err != nil {
		return Features{}, err
	}

	return f, nil
}

/*
ffmpeg version n4.0 Copyright (c) 2000-2018 the FFmpeg developers
ffmpeg version 4.2 Copyright (c) 2000-2019 the FFmpeg developers
ffmpeg version 6.1.1-3ubuntu5 Copyright (c) 2000-2023 the FFmpeg developers
*/
var versionLineRe = regexp.MustCompile(`` +
	`^ffmpeg version ` +
	`(?P<release>` +
	`(?:\w*?(?P<major>\d+))` +
	`(?:\.(?P<minor>\d+))` +
	`(?:\.(?P<patch>\d+))?` +
	`\S*` +
	`)` +
	` Copyright.*$` +
	``)

func Version(ctx context.Context, ffmpegPath string) (VersionParts, error) {
	versionBytes, err := exec.CommandContext(ctx, ffmpegPath, "-version").Output()
	if err != nil {
		return VersionParts{}, err
	}

	full := string(versionBytes)
	firstLine, _, _ := strings.Cut(full, "\n")
	versionMatch := reMatchNamedGroups(versionLineRe, firstLine)
	if versionMatch == nil {
		return VersionParts{Full: full}, fmt.Errorf("failed to parse version line: %q", firstLine)
	}

	major, _ := strconv.Atoi(versionMatch["major"])
	minor, _ := strconv.Atoi(versionMatch["minor"])
	patch, _ := strconv.Atoi(versionMatch["patch"])

	return VersionParts{
		Full:    full,
		Release: versionMatch["release"],
		Major:   uint(major),
		Minor:   uint(minor),
		Patch:   uint(patch),
	}, nil
}

/*
Encoders:
 V..... = Video
 A..... = Audio
 S..... = Subtitle
 .F.... = Frame-level multithreading
 ..S... = Slice-level multithreading
 ...X.. = Codec is experimental
 ....B. = Supports draw_horiz_band
 .....D = Supports direct rendering method 1
 ------
 V....D a64multi             Multicolor charset for Commodore 64 (codec a64_multi)
*/
var codersLineRe = regexp.MustCompile(`` +
	`^` +
	`\s*` +
	`(?P<flags>[A-Z.]{6})` +
	`\s+` +
	`(?P<codername>\S+)` +
	`\s*` +
	`(?P<description>.*?)` +
	`\s*` +
	`$` +
	``)

func Encoders(ctx context.Context, ffmpegPath string) ([]Coder, error) {
	return coders(ctx, ffmpegPath, "-encoders")
}

// Decoders lists decoders, same output format as -encoders
func Decoders(ctx context.Context, ffmpegPath string) ([]Coder, error) {
	return coders(ctx, ffmpegPath, "-decoders")
}

func coders(ctx context.Context, ffmpegPath string, listFlag string) ([]Coder, error) {
	cmd := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", listFlag)
	matches, err := reMatchNamedGroupsCommandOutput(cmd, "--", codersLineRe)
	if err != nil {
		return nil, err
	}

	coders := []Coder{}
	for _, m := range matches {
		var mediaType MediaType
		switch m["flags"][0] {
		case 'A':
			mediaType = MediaTypeAudio
		case 'V':
			mediaType = MediaTypeVideo
		case 'S':
			mediaType = MediaTypeSubtitle
		case 'D', 'T':
			// data and attachment codecs
			continue
		default:
			return nil, errors.New("unknown media type: " + m["flags"][:1])
		}
		coders = append(coders, Coder{
			Name:        m["codername"],
			Description: m["description"],
			MediaType:   mediaType,
		})
	}

	return coders, nil
}

/*
File formats:
 D. = Demuxing supported
 .E = Muxing supported
 --
  E 3g2             3GP2 (3GPP file format)

newer versions have a device column:
 D.. = Demuxing supported
 .E. = Muxing supported
 ..d = Is a device
 ---
  E  3g2             3GP2 (3GPP file format)
*/
var formatsLineRe = regexp.MustCompile(`` +
	`^` +
	`\s*` +
	`(?P<flags>[DEd]+)` +
	`\s+` +
	`(?P<formatname>\S+)` +
	`\s*` +
	`(?P<description>.*?)` +
	`\s*` +
	`$` +
	``)

func Muxers(ctx context.Context, ffmpegPath string) ([]Format, error) {
	cmd := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-muxers")
	matches, err := reMatchNamedGroupsCommandOutput(cmd, "--", formatsLineRe)
	if err != nil {
		return nil, err
	}

	formats := []Format{}
	for _, m := range matches {
		if !strings.Contains(m["flags"], "E") {
			continue
		}
		for _, name := range strings.Split(m["formatname"], ",") {
			formats = append(formats, Format{Name: name, Description: m["description"]})
		}
	}

	return formats, nil
}

func reMatchNamedGroups(re *regexp.Regexp, s string) map[string]string {
	match := re.FindStringSubmatch(s)
	if match == nil {
		return nil
	}

	result := map[string]string{}
	for i, name := range re.SubexpNames() {
		if i != 0 {
			result[name] = match[i]
		}
	}

	return result
}

// skips lines until one ends with headerEndSuffix and then matches each
// non-empty line with lineRe
func reMatchNamedGroupsCommandOutput(cmd *exec.Cmd, headerEndSuffix string, lineRe *regexp.Regexp) ([]map[string]string, error) {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	lineScanner := bufio.NewScanner(stdout)
	for lineScanner.Scan() {
		if strings.HasSuffix(strings.TrimSpace(lineScanner.Text()), headerEndSuffix) {
			break
		}
	}

	var matches []map[string]string
	var parseErr error
	for lineScanner.Scan() {
		line := lineScanner.Text()
		if strings.TrimSpace(line) == "" || parseErr != nil {
			continue
		}
		m := reMatchNamedGroups(lineRe, line)
		if m == nil {
			parseErr = errors.New("failed to parse line: '" + line + "'")
			continue
		}
		matches = append(matches, m)
	}

	// drain and wait before reporting errors so the process is reaped
	waitErr := cmd.Wait()
	if parseErr != nil {
		return nil, parseErr
	}
	if lineScanner.Err() != nil {
		return nil, lineScanner.Err()
	}
	if waitErr != nil {
		return nil, waitErr
	}

	return matches, nil
}
