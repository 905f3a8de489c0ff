// Package manpage generates a roff-formatted man page for boardtop.
//
// Keybindings are read from the TUI key map and the version comes from the
// build-time linker variables, so the page follows the binary it ships with.
//
// Usage:
//
//	boardtop --man | man -l -
//	boardtop --man > ~/.local/share/man/man1/boardtop.1
package manpage

import (
	"fmt"
	"strings"
	"time"

	"gitlab.com/tinyland/lab/boardtop/config"
	"gitlab.com/tinyland/lab/boardtop/display/tui"
	"gitlab.com/tinyland/lab/boardtop/internal/format"
)

// Generate produces a complete roff-formatted man(1) page for boardtop.
func Generate(version, commit, date string) string {
	var b strings.Builder

	writeHeader(&b, version)
	writeName(&b)
	writeSynopsis(&b)
	writeDescription(&b)
	writeOptions(&b)
	writeKeybindings(&b)
	writeConfiguration(&b)
	writeFiles(&b)
	writeEnvironment(&b)
	writeExitStatus(&b)
	writeSeeAlso(&b)
	writeFooter(&b, version, commit, date)

	return b.String()
}

// roffEscape escapes special roff characters in a string.
func roffEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `-`, `\-`)
	s = strings.ReplaceAll(s, `.`, `\&.`)
	return s
}

func writeHeader(b *strings.Builder, version string) {
	month := time.Now().Format("January 2006")
	fmt.Fprintf(b, ".TH BOARDTOP 1 \"%s\" \"boardtop %s\" \"User Commands\"\n", month, version)
}

func writeName(b *strings.Builder) {
	b.WriteString(`.SH NAME
boardtop \- live terminal dashboard for host and board resource usage
`)
}

func writeSynopsis(b *strings.Builder) {
	b.WriteString(`.SH SYNOPSIS
.B boardtop
[\fIOPTIONS\fR]
`)
}

func writeDescription(b *strings.Builder) {
	b.WriteString(`.SH DESCRIPTION
.B boardtop
charts CPU, memory, network and GPU utilization. On Rockchip\-style boards
it also reports NPU and RGA load read from sysfs and debugfs.
.PP
Each metric family is served by exactly one source chosen at startup. When
platform metrics are enabled and the board exposes a family, the
board\-specific collector wins; otherwise the portable collector is used.
Families that neither source provides are hidden.
.PP
When standard output is not a terminal, or with \fB\-\-once\fR, a single
plain\-text snapshot is printed instead of the interactive dashboard.
`)
}

func writeOptions(b *strings.Builder) {
	b.WriteString(".SH OPTIONS\n")

	flags := []struct {
		flag string
		arg  string
		desc string
	}{
		{"config", "PATH", "Path to the TOML configuration file. Default: ~/.config/boardtop/config.toml."},
		{"platform", "", "Enable board\\-specific collectors, overriding the configuration file."},
		{"no\\-platform", "", "Disable board\\-specific collectors. Cannot be combined with \\fB\\-\\-platform\\fR."},
		{"gpu\\-path", "DIR", "GPU devfreq directory. Skips discovery under /sys/class/devfreq."},
		{"npu\\-path", "DIR", "NPU devfreq directory. Skips discovery under /sys/class/devfreq."},
		{"once", "", "Collect two samples one refresh interval apart, print them and exit."},
		{"verbose", "", "Enable debug logging."},
		{"version", "", "Print the version, commit hash and build date, then exit."},
		{"man", "", "Print this man page in roff format."},
	}

	for _, f := range flags {
		b.WriteString(".TP\n")
		if f.arg != "" {
			fmt.Fprintf(b, ".BR \\-\\-%s \" \\fI%s\\fR\"\n", f.flag, f.arg)
		} else {
			fmt.Fprintf(b, ".B \\-\\-%s\n", f.flag)
		}
		b.WriteString(f.desc + "\n")
	}
}

func writeKeybindings(b *strings.Builder) {
	b.WriteString(`.SH KEYBINDINGS
A key repeated within ` + roffEscape(format.Interval(tui.RepeatDelay)) + ` of the same key is ignored.
`)
	for _, binding := range tui.Bindings() {
		names := make([]string, 0, len(binding.Keys()))
		for _, k := range binding.Keys() {
			if k == " " {
				k = "space"
			}
			names = append(names, roffEscape(k))
		}
		fmt.Fprintf(b, ".TP\n.B %s\n%s\n", strings.Join(names, ", "), roffEscape(binding.Help().Desc))
	}
}

func writeConfiguration(b *strings.Builder) {
	presets := make([]string, 0, len(config.RefreshPresets))
	for _, p := range config.RefreshPresets {
		presets = append(presets, roffEscape(format.Interval(p)))
	}

	b.WriteString(`.SH CONFIGURATION
The configuration file is TOML. Changes made in the options menu are saved
back to it immediately. A legacy config.yaml next to the TOML path is read
when no TOML file exists.
.PP
.nf
refresh_rate = 1000            # milliseconds, or a duration such as "2s"
show_cpu = true
show_memory = true
show_gpu = true
show_network = true
show_npu = true
show_rga = true
selected_network_interface = "eth0"
use_platform_metrics = true
history_length = 100

[platform]
gpu_path = ""
npu_path = ""
privileged_command = "sudo \-n"

[log]
level = "info"
file = ""
.fi
.PP
`)
	fmt.Fprintf(b, "The options menu cycles the refresh rate through %s. Rates below %s are raised to %s.\n",
		strings.Join(presets, ", "),
		roffEscape(format.Interval(config.MinRefresh)),
		roffEscape(format.Interval(config.MinRefresh)))
}

func writeFiles(b *strings.Builder) {
	b.WriteString(`.SH FILES
.TP
.I $XDG_CONFIG_HOME/boardtop/config.toml
Primary configuration file.
.TP
.I ~/.config/boardtop/config.toml
Fallback when XDG_CONFIG_HOME is unset or has no configuration.
.TP
.I /sys/kernel/debug/rknpu/load
NPU load, read through the privileged command when not readable directly.
.TP
.I /sys/kernel/debug/rkrga/load
RGA core load.
`)
}

func writeEnvironment(b *strings.Builder) {
	b.WriteString(`.SH ENVIRONMENT
.TP
.B BOARDTOP_REFRESH
Refresh rate in milliseconds or as a duration.
.TP
.B BOARDTOP_PLATFORM
Boolean overriding use_platform_metrics.
.TP
.B BOARDTOP_GPU_PATH
GPU devfreq directory.
.TP
.B BOARDTOP_NPU_PATH
NPU devfreq directory.
.TP
.B XDG_CONFIG_HOME
Base directory for the configuration file.
`)
}

func writeExitStatus(b *strings.Builder) {
	b.WriteString(".SH EXIT STATUS\n")
	b.WriteString(".TP\n.B 0\nSuccess.\n")
	b.WriteString(".TP\n.B 1\nInvalid flags or configuration, or a failed snapshot in \\fB\\-\\-once\\fR mode.\n")
}

func writeSeeAlso(b *strings.Builder) {
	b.WriteString(`.SH SEE ALSO
.BR top (1),
.BR htop (1),
.BR nvidia\-smi (1)
`)
}

func writeFooter(b *strings.Builder, version, commit, date string) {
	fmt.Fprintf(b, ".SH VERSION\n%s (%s) built %s\n", version, commit, date)
}
