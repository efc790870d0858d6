package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivanoskov/finance_dashboard/internal/analytics"
	"github.com/ivanoskov/finance_dashboard/internal/model"
)

// Кнопки главного меню
const (
	buttonIncome     = "💰 Доход"
	buttonExpense    = "💸 Расход"
	buttonSaving     = "🐷 Отложить в цель"
	buttonWithdrawal = "🏧 Снять из цели"
	buttonSummary    = "📊 Сводка"
	buttonGoals      = "🎯 Цели"
	buttonAlerts     = "🔔 Напоминания"
	buttonChart      = "📈 Графики"
)

// Префиксы данных inline-кнопок
const (
	callbackSent   = "sent_"
	callbackToggle = "toggle_"
	callbackGoal   = "goal_"
	callbackPeriod = "period_"
)

var buttonTypes = map[string]model.TransactionType{
	buttonIncome:     model.TypeIncome,
	buttonExpense:    model.TypeExpense,
	buttonSaving:     model.TypeSaving,
	buttonWithdrawal: model.TypeWithdrawal,
}

func (b *Bot) getMainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonIncome),
			tgbotapi.NewKeyboardButton(buttonExpense),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonSaving),
			tgbotapi.NewKeyboardButton(buttonWithdrawal),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonSummary),
			tgbotapi.NewKeyboardButton(buttonGoals),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonAlerts),
			tgbotapi.NewKeyboardButton(buttonChart),
		),
	)
}

// getAlertsKeyboard - по строке на напоминание: отметить отправленным и скрыть
func (b *Bot) getAlertsKeyboard(alerts []model.Alert) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, a := range alerts {
		var row []tgbotapi.InlineKeyboardButton
		if !a.Sent {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("✅ "+a.Title, callbackSent+a.ID))
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("🔕 Скрыть", callbackToggle+a.ID))
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) getGoalsKeyboard(goals []model.GoalWithProgress) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, g := range goals {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(g.Name, callbackGoal+g.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) getPeriodKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Недели", callbackPeriod+string(analytics.PeriodWeek)),
			tgbotapi.NewInlineKeyboardButtonData("Месяцы", callbackPeriod+string(analytics.PeriodMonth)),
			tgbotapi.NewInlineKeyboardButtonData("Годы", callbackPeriod+string(analytics.PeriodYear)),
		),
	)
}
