package promptgen

import "testing"

func TestParseKeyframesFenced(t *testing.T) {
	text := "Анализ фрагмента...\n\n```json\n" +
		`[{"timecode": "00:42", "title": "Панель настроек", "frame_description": "Открыт список опций."},` +
		`{"timecode": "01:15", "title": "Ошибка валидации"}]` +
		"\n```\n"

	frames := ParseKeyframes(text)
	if len(frames) != 2 {
		t.Fatalf("expected 2 keyframes, got %d: %+v", len(frames), frames)
	}
	if frames[0].Timecode != "00:42" || frames[0].Title != "Панель настроек" {
		t.Errorf("first keyframe = %+v", frames[0])
	}
	if frames[1].FrameDescription != "" {
		t.Errorf("missing description should stay empty, got %q", frames[1].FrameDescription)
	}
}

func TestParseKeyframesBareArray(t *testing.T) {
	text := `Вот список: [{"timecode": "02:00", "title": "Смена сцены"}] на этом всё.`
	frames := ParseKeyframes(text)
	if len(frames) != 1 {
		t.Fatalf("expected 1 keyframe, got %d", len(frames))
	}
	if frames[0].Timecode != "02:00" {
		t.Errorf("keyframe = %+v", frames[0])
	}
}

func TestParseKeyframesWrappedObject(t *testing.T) {
	text := "```json\n" + `{"keyframes": [{"timecode": "00:10", "title": "x"}]}` + "\n```"
	frames := ParseKeyframes(text)
	if len(frames) != 1 {
		t.Fatalf("expected 1 keyframe, got %d", len(frames))
	}
}

func TestParseKeyframesSkipsEmptyTimecodes(t *testing.T) {
	text := "```json\n" +
		`[{"timecode": "", "title": "нет таймкода"},{"timecode": "00:30", "title": ""}]` +
		"\n```"
	frames := ParseKeyframes(text)
	if len(frames) != 1 {
		t.Fatalf("expected 1 keyframe, got %d: %+v", len(frames), frames)
	}
	if frames[0].Title != "keyframe" {
		t.Errorf("empty title should default, got %q", frames[0].Title)
	}
}

func TestParseKeyframesInsideJSONOutputTag(t *testing.T) {
	// Some models echo the tag structure of the criteria block instead of
	// a markdown fence
	text := "Ключевые кадры:\n<json_output>\n" +
		`[{"timecode": "00:55", "title": "Главный экран"}]` +
		"\n</json_output>\n"
	frames := ParseKeyframes(text)
	if len(frames) != 1 {
		t.Fatalf("expected 1 keyframe, got %d: %+v", len(frames), frames)
	}
	if frames[0].Timecode != "00:55" || frames[0].Title != "Главный экран" {
		t.Errorf("keyframe = %+v", frames[0])
	}
}

func TestParseKeyframesNone(t *testing.T) {
	if frames := ParseKeyframes("Обычный текст без JSON."); frames != nil {
		t.Errorf("expected nil, got %+v", frames)
	}
	if frames := ParseKeyframes("```json\nnot json at all\n```"); frames != nil {
		t.Errorf("expected nil for invalid JSON, got %+v", frames)
	}
}
