package promptgen

import (
	"fmt"
	"strings"
)

// escapeXML escapes text destined for an XML text node
func escapeXML(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return replacer.Replace(s)
}

// Fallback builds the deterministic template for a target with the user's
// description substituted into its designated slot. Identical inputs always
// produce identical bytes; callers rely on this when model output cannot be
// extracted.
func Fallback(target, description, provider, model, videoType string) string {
	safeDescription := escapeXML(strings.TrimSpace(description))
	safeProvider := escapeXML(strings.TrimSpace(provider))
	safeModel := escapeXML(strings.TrimSpace(model))
	safeVideoType := escapeXML(strings.TrimSpace(videoType))
	if safeVideoType == "" {
		safeVideoType = "general"
	}

	if target == TargetKeyframes {
		return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<keyframes_criteria>
    <json_output>Если key frames присутствуют, верни их строго в JSON внутри блока %s без лишнего текста.</json_output>
    <no_limit>Не ограничивай количество ключевых кадров: фиксируй все значимые моменты для понимания видео.</no_limit>
    <cadence>Ориентир: в среднем один ключевой кадр каждые 10-20 секунд, с адаптацией к динамике сцены.</cadence>
    <key_frame_criteria>
        <note>Критерии сформированы автоматически для provider=%s, model=%s. Исходный кейс: %s</note>
        <item>Смена сцены, ракурса, локации или композиции кадра.</item>
        <item>Появление/исчезновение важного объекта, текста, UI-элемента или метрики.</item>
        <item>Критические действия в интерфейсе: клик, переключение, подтверждение, ошибка, уведомление.</item>
        <item>Моменты с ключевыми тезисами, числами, сроками, решениями или призывами к действию.</item>
        <item>События, прямо описанные в кейсе пользователя: %s</item>
    </key_frame_criteria>
    <recall_bias>При сомнении включай кадр в выборку, чтобы не терять важный контекст.</recall_bias>
</keyframes_criteria>`, "```json ... ```", safeProvider, safeModel, safeDescription, safeDescription)
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<prompt>
    <type>%s</type>
    <task>Проанализируй видеофрагмент по кейсу пользователя и выдай структурированный результат.</task>
    <context>
        <chunk_info>
            <chunk_number>{chunk_number}</chunk_number>
            <total_chunks>{total_chunks}</total_chunks>
            <time_range>
                <start_minutes>{start_time_minutes}</start_minutes>
                <end_minutes>{end_time_minutes}</end_minutes>
                <duration_minutes>{duration_minutes}</duration_minutes>
            </time_range>
        </chunk_info>
    </context>
    <focus>
        <item>Цель и контекст кейса: %s</item>
        <item>Ключевые события, сцены, действия, объекты, текст на экране и UI-переходы.</item>
        <item>Ключевые тезисы/сигналы и их связь с задачей анализа.</item>
    </focus>
    <requirements>
        <language>ОБЯЗАТЕЛЬНО отвечай на русском языке.</language>
        <detail_level>Дай детальный, практичный разбор с четкой структурой.</detail_level>
        <factuality>Не выдумывай факты, явно помечай неразборчивые или неизвестные моменты.</factuality>
        <timecodes>Выделяй ключевые моменты с таймкодами в формате чч:мм:сс.</timecodes>
        <confidence>Для ключевых выводов указывай уверенность: низкая/средняя/высокая.</confidence>
    </requirements>
    <output>
        <section>Краткое резюме</section>
        <section>Таймлайн ключевых событий с таймкодами</section>
        <section>Сущности и объекты</section>
        <section>Ключевые кадры, влияющие на понимание и решения</section>
        <section>Открытые вопросы и неопределенности</section>
    </output>
</prompt>`, safeVideoType, safeDescription)
}
