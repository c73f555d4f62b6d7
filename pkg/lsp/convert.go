package lsp

import (
	"errors"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Sumatoshi-tech/rotalsp/pkg/assist"
	"github.com/Sumatoshi-tech/rotalsp/pkg/engine"
	"github.com/Sumatoshi-tech/rotalsp/pkg/safeconv"
	"github.com/Sumatoshi-tech/rotalsp/pkg/validate"
)

var errUnknownCommand = errors.New("unknown command")

func diagnostic(doc *engine.Document, finding validate.Finding) protocol.Diagnostic {
	line, _ := doc.Line(finding.Line)
	severity := severityOf(finding.Severity)
	source := diagnosticSource

	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{
				Line:      safeconv.ClampUint32(finding.Line),
				Character: byteToUTF16(line, finding.Start),
			},
			End: protocol.Position{
				Line:      safeconv.ClampUint32(finding.Line),
				Character: byteToUTF16(line, finding.End),
			},
		},
		Severity: &severity,
		Code:     &protocol.IntegerOrString{Value: finding.Code},
		Source:   &source,
		Message:  finding.Message,
	}
}

func severityOf(sev validate.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case validate.SeverityError:
		return protocol.DiagnosticSeverityError
	case validate.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	default:
		return protocol.DiagnosticSeverityInformation
	}
}

func completionItem(item assist.Item) protocol.CompletionItem {
	kind := itemKind(item.Kind)

	out := protocol.CompletionItem{
		Label: item.Label,
		Kind:  &kind,
	}

	if item.Detail != "" {
		detail := item.Detail
		out.Detail = &detail
	}

	if item.Documentation != "" {
		out.Documentation = protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: item.Documentation,
		}
	}

	if item.InsertText != "" {
		insert := item.InsertText
		out.InsertText = &insert
	}

	if item.Snippet {
		format := protocol.InsertTextFormatSnippet
		out.InsertTextFormat = &format
	}

	return out
}

func itemKind(kind assist.ItemKind) protocol.CompletionItemKind {
	switch kind {
	case assist.KindKeyword:
		return protocol.CompletionItemKindKeyword
	case assist.KindOption:
		return protocol.CompletionItemKindProperty
	case assist.KindValue:
		return protocol.CompletionItemKindEnumMember
	case assist.KindProperty:
		return protocol.CompletionItemKindField
	case assist.KindSpell:
		return protocol.CompletionItemKindFunction
	case assist.KindList:
		return protocol.CompletionItemKindModule
	case assist.KindVariable:
		return protocol.CompletionItemKindVariable
	default:
		return protocol.CompletionItemKindText
	}
}
