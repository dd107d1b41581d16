// Package student содержит профиль студента Preparedness Hub.
//
// Профиль принадлежит сессии и изменяется только двумя событиями:
// прохождением урока и начислением опыта. Всё остальное (уровень,
// прогресс, снимок достижений) вычисляется из профиля на каждый запрос.
//
// # Основные операции
//
//	profile, err := NewProfile(NewProfileParams{
//	    Name:       "Priya",
//	    ClassID:    ClassID("7A"),
//	    ClassLevel: 7,
//	    XP:         980,
//	    Modules:    modules,
//	})
//
//	// Урок пройден
//	module, err := profile.CompleteLesson("earthquake")
//
//	// Начисление опыта
//	total, err := profile.AwardXP(50)
//
//	// Снимок для значков
//	facts, err := profile.Facts(levels, milestones, report.IsEssentialComplete)
//
// Пакет не зависит от инфраструктуры: только доменные пакеты progress,
// level и badge.
package student
